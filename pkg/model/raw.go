package model

// ItemRef describes an in-game item referenced by an objective or a hideout
// requirement.
type ItemRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ShortName   string  `json:"shortName"`
	IconLink    string  `json:"iconLink,omitempty"`
	WikiLink    string  `json:"wikiLink,omitempty"`
	Avg24hPrice int     `json:"avg24hPrice,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}

// HideoutStation is a raw hideout station record from the static dataset.
type HideoutStation struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalizedName"`
	ImageLink      string         `json:"imageLink,omitempty"`
	Levels         []HideoutLevel `json:"levels"`
}

// HideoutLevel is one upgrade level of a station.
type HideoutLevel struct {
	Level                    int                       `json:"level"`
	ConstructionTime         int                       `json:"constructionTime"`
	Description              string                    `json:"description,omitempty"`
	ItemRequirements         []ItemRequirement         `json:"itemRequirements"`
	StationLevelRequirements []StationLevelRequirement `json:"stationLevelRequirements"`
	TraderRequirements       []TraderRequirement       `json:"traderRequirements"`
	SkillRequirements        []SkillRequirement        `json:"skillRequirements"`
}

// ItemRequirement is an item hand-in needed for a hideout level.
type ItemRequirement struct {
	Item       ItemRef     `json:"item"`
	Count      int         `json:"count"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// FoundInRaid reports whether the requirement carries foundInRaid=true.
func (r ItemRequirement) FoundInRaid() bool {
	for _, a := range r.Attributes {
		if a.Name == "foundInRaid" && a.Value == "true" {
			return true
		}
	}
	return false
}

// Attribute is a free-form name/value pair.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StationRef identifies a hideout station.
type StationRef struct {
	ID             string `json:"id"`
	NormalizedName string `json:"normalizedName"`
	Name           string `json:"name"`
}

// StationLevelRequirement requires another station at a level.
type StationLevelRequirement struct {
	Station StationRef `json:"station"`
	Level   int        `json:"level"`
}

// TraderRef identifies a trader.
type TraderRef struct {
	ID             string `json:"id"`
	NormalizedName string `json:"normalizedName"`
	Name           string `json:"name"`
}

// TraderRequirement requires a trader loyalty level.
type TraderRequirement struct {
	Trader TraderRef `json:"trader"`
	Level  int       `json:"level"`
}

// SkillRequirement requires a player skill level.
type SkillRequirement struct {
	Skill struct {
		Name string `json:"name"`
	} `json:"skill"`
	Level int `json:"level"`
}

// TraderRecord is a raw trader record with its loyalty levels.
type TraderRecord struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	NormalizedName string        `json:"normalizedName"`
	ImageLink      string        `json:"imageLink,omitempty"`
	Levels         []TraderLevel `json:"levels"`
}

// TraderLevel is one loyalty level of a trader.
type TraderLevel struct {
	Level               int     `json:"level"`
	RequiredPlayerLevel int     `json:"requiredPlayerLevel"`
	RequiredReputation  float64 `json:"requiredReputation"`
	RequiredCommerce    int     `json:"requiredCommerce"`
}

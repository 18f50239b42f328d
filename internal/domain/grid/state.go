package grid

import "maps"

// Direction is a sort direction
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid reports whether d is asc or desc
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortState is the single active sort column. An empty Key means unsorted.
type SortState struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"dir,omitempty"`
}

// Active reports whether a sort column is set
func (s SortState) Active() bool {
	return s.Key != ""
}

// State is the transient filter, sort and page state of one grid instance
type State struct {
	Query   string            `json:"q"`
	Selects map[string]string `json:"selects"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Sort    SortState         `json:"sort"`
	Page    int               `json:"page"`
}

// Clone returns a deep copy
func (s State) Clone() State {
	out := s
	out.Selects = maps.Clone(s.Selects)
	if out.Selects == nil {
		out.Selects = map[string]string{}
	}
	return out
}

// IsZero reports whether no filter, sort or navigation is applied
func (s State) IsZero() bool {
	for _, v := range s.Selects {
		if v != "" {
			return false
		}
	}
	return s.Query == "" && s.From == "" && s.To == "" && !s.Sort.Active() && s.Page <= 1
}

// Nav reports which pagination controls are enabled
type Nav struct {
	First bool `json:"first"`
	Prev  bool `json:"prev"`
	Next  bool `json:"next"`
	Last  bool `json:"last"`
}

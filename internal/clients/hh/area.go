package hh

import "strings"

type Area struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
	Areas    []Area  `json:"areas"`
}

// FlattenAreas lists every area of the tree in depth-first order without nested children.
func FlattenAreas(tree []Area) []Area {
	var result []Area

	stack := reverse(tree)
	for len(stack) > 0 {
		area := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		result = append(result, Area{ID: area.ID, ParentID: area.ParentID, Name: area.Name})
		stack = append(stack, reverse(area.Areas)...)
	}

	return result
}

// FindAreaByName returns the first area in depth-first order whose name matches case-insensitively.
func FindAreaByName(tree []Area, name string) (Area, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Area{}, false
	}

	stack := reverse(tree)
	for len(stack) > 0 {
		area := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if strings.EqualFold(strings.TrimSpace(area.Name), name) {
			return Area{ID: area.ID, ParentID: area.ParentID, Name: area.Name}, true
		}
		stack = append(stack, reverse(area.Areas)...)
	}

	return Area{}, false
}

func reverse(areas []Area) []Area {
	result := make([]Area, len(areas))
	for i, area := range areas {
		result[len(areas)-1-i] = area
	}
	return result
}

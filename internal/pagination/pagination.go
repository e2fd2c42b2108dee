package pagination

import (
	"fmt"
	"github.com/pkg/errors"
)

var ErrPageOutOfRange = errors.New("page out of range")

// maxFlatPages is the largest page count rendered without ellipsis.
const maxFlatPages = 7

type ButtonKind int

const (
	KindPage ButtonKind = iota
	KindEllipsis
	KindPrev
	KindNext
)

// Button is one control of a pagination row. Page is the 0-based target page, Number is the 1-based
// display number. Ellipsis buttons have no target.
type Button struct {
	Kind    ButtonKind
	Page    int
	Number  int
	Current bool
}

func (b Button) Label() string {
	switch b.Kind {
	case KindPrev:
		return "◀️"
	case KindNext:
		return "▶️"
	case KindEllipsis:
		return "..."
	}
	if b.Current {
		return fmt.Sprintf("• %d •", b.Number)
	}
	return fmt.Sprintf("%d", b.Number)
}

func TotalPages(itemCount, pageSize int) int {
	if itemCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (itemCount + pageSize - 1) / pageSize
}

// Slice returns items[page*pageSize : (page+1)*pageSize] clipped to the slice length.
// A page outside [0, TotalPages) is reported as ErrPageOutOfRange.
func Slice[T any](items []T, page, pageSize int) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	total := TotalPages(len(items), pageSize)
	if page < 0 || page >= total {
		return nil, errors.Wrapf(ErrPageOutOfRange, "page %d of %d", page, total)
	}

	start := page * pageSize
	end := min(start+pageSize, len(items))
	return items[start:end], nil
}

// Layout builds the control row for a 0-based page out of totalPages pages.
func Layout(page, totalPages int) []Button {
	if totalPages <= 0 {
		return nil
	}

	var buttons []Button
	if page > 0 {
		buttons = append(buttons, Button{Kind: KindPrev, Page: page - 1})
	}

	current := page + 1
	number := func(n int) Button {
		return Button{Kind: KindPage, Page: n - 1, Number: n, Current: n == current}
	}

	if totalPages <= maxFlatPages {
		for n := 1; n <= totalPages; n++ {
			buttons = append(buttons, number(n))
		}
	} else {
		start := max(2, current-1)
		end := min(totalPages-1, current+1)

		buttons = append(buttons, number(1))
		if start > 2 {
			buttons = append(buttons, Button{Kind: KindEllipsis})
		}
		for n := start; n <= end; n++ {
			buttons = append(buttons, number(n))
		}
		if end < totalPages-1 {
			buttons = append(buttons, Button{Kind: KindEllipsis})
		}
		buttons = append(buttons, number(totalPages))
	}

	if page < totalPages-1 {
		buttons = append(buttons, Button{Kind: KindNext, Page: page + 1})
	}

	return buttons
}

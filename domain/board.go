package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Card is a single item from a full Trello board export. Only the fields the
// reporting pipeline reads are modelled; unknown export fields are ignored.
type Card struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Desc             string   `json:"desc,omitempty"`
	ListID           string   `json:"idList,omitempty"`
	MemberIDs        []string `json:"idMembers,omitempty"`
	Due              string   `json:"due,omitempty"`
	DateLastActivity string   `json:"dateLastActivity,omitempty"`
	Closed           bool     `json:"closed,omitempty"`
}

// List is a board column.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Member is a board member. Username is the key into the group registry.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Board is an immutable snapshot of a full board export.
type Board struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Cards   []Card   `json:"cards"`
	Lists   []List   `json:"lists"`
	Members []Member `json:"members"`
}

type rawBoard struct {
	Name    sonic.NoCopyRawMessage `json:"name"`
	Cards   sonic.NoCopyRawMessage `json:"cards"`
	Lists   sonic.NoCopyRawMessage `json:"lists"`
	Members sonic.NoCopyRawMessage `json:"members"`
}

type rawCard struct {
	ID   sonic.NoCopyRawMessage `json:"id"`
	Name sonic.NoCopyRawMessage `json:"name"`
}

// ValidateBoardExport checks the structural shape of a raw board export and
// returns one human-readable message per violation. An empty result means the
// payload is safe to decode into a Board. Nothing past structural shape is
// checked here; malformed timestamps and dangling references are recovered
// from during report generation instead.
func ValidateBoardExport(data []byte) []string {
	if jsonKind(data) != '{' {
		return []string{"payload must be a JSON object"}
	}
	var raw rawBoard
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return []string{"payload must be a JSON object"}
	}

	var errs []string
	if len(raw.Name) == 0 {
		errs = append(errs, "required field 'name' is missing")
	} else if jsonKind(raw.Name) != '"' {
		errs = append(errs, "field 'name' must be a string")
	}
	for _, f := range []struct {
		name string
		raw  []byte
	}{
		{"cards", raw.Cards},
		{"lists", raw.Lists},
		{"members", raw.Members},
	} {
		if len(f.raw) == 0 {
			errs = append(errs, fmt.Sprintf("required field '%s' is missing", f.name))
			continue
		}
		if jsonKind(f.raw) != '[' {
			errs = append(errs, fmt.Sprintf("field '%s' must be an array", f.name))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	var cards []rawCard
	if err := sonic.Unmarshal(raw.Cards, &cards); err != nil {
		return []string{"field 'cards' must be an array of objects"}
	}
	for i, c := range cards {
		if len(c.ID) == 0 || jsonKind(c.ID) != '"' {
			errs = append(errs, fmt.Sprintf("card %d: required field 'id' is missing or not a string", i))
		}
		if len(c.Name) == 0 || jsonKind(c.Name) != '"' {
			errs = append(errs, fmt.Sprintf("card %d: required field 'name' is missing or not a string", i))
		}
	}
	return errs
}

// jsonKind returns the first significant byte of a JSON value, which is enough
// to distinguish strings, arrays, objects, numbers and literals.
func jsonKind(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

package cli

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// QuitChoice is the first entry of every state menu.
const QuitChoice = "[Quit]"

// ErrQuit is returned by SelectState when the user picks QuitChoice.
var ErrQuit = errors.New("quit selected")

// ErrNoChoices is returned by SelectState when there is nothing to pick.
var ErrNoChoices = errors.New("no states to choose from")

// SelectState shows states as a menu, in the given order, below QuitChoice
// and returns the chosen one. Typing filters by prefix.
func SelectState(label string, states []string) (string, error) {
	if len(states) == 0 {
		return "", ErrNoChoices
	}

	items := menuItems(states)

	sel := &promptui.Select{
		Label:    label,
		Items:    items,
		Size:     min(len(items), 10), //nolint:mnd
		Searcher: prefixSearcher(items),
	}

	idx, value, err := sel.Run()
	if err != nil {
		return "", err
	}

	if idx == 0 {
		return "", ErrQuit
	}

	return value, nil
}

func menuItems(states []string) []string {
	return append([]string{QuitChoice}, states...)
}

// prefixSearcher matches items by case-insensitive prefix. The quit entry
// never matches a search.
func prefixSearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if index == 0 || input == "" {
			return false
		}

		return strings.HasPrefix(strings.ToLower(items[index]), strings.ToLower(input))
	}
}

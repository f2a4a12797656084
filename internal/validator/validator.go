package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidGameName     = errors.New("game name must be 2-50 lowercase letters, digits or dashes")
	ErrInvalidPrizeChance  = errors.New("prize chance must be between 0 and 100")
	ErrInvalidPrizeName    = errors.New("prize name is required and must be at most 120 characters")
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidStockLevel   = errors.New("stock values must not be negative")
	ErrInvalidRarity       = errors.New("rarity weight must be at least 1")
	ErrInvalidWinnerStatus = errors.New("status must be one of pending, contacted, shipped, delivered")
	ErrInvalidRate         = errors.New("rate is out of range")
	ErrReasonRequired      = errors.New("reason is required")
)

var gameNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,49}$`)

var winnerStatusRank = map[string]int{
	"pending":   0,
	"contacted": 1,
	"shipped":   2,
	"delivered": 3,
}

func ValidateGameName(name string) error {
	if !gameNameRegex.MatchString(name) {
		return ErrInvalidGameName
	}
	return nil
}

func ValidatePrizeChance(chance float64) error {
	if chance < 0 || chance > 100 {
		return ErrInvalidPrizeChance
	}
	return nil
}

func ValidatePrizeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return ErrInvalidPrizeName
	}
	return nil
}

func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func ValidateStockLevels(stock, minAlert int) error {
	if stock < 0 || minAlert < 0 {
		return ErrInvalidStockLevel
	}
	return nil
}

func ValidateRarity(weight int) error {
	if weight < 1 {
		return ErrInvalidRarity
	}
	return nil
}

func ValidateWinnerStatus(status string) error {
	if _, ok := winnerStatusRank[status]; !ok {
		return ErrInvalidWinnerStatus
	}
	return nil
}

// WinnerStatusRank orders delivery statuses; unknown statuses rank -1.
func WinnerStatusRank(status string) int {
	rank, ok := winnerStatusRank[status]
	if !ok {
		return -1
	}
	return rank
}

// ValidateRate checks a percentage against [min, 100].
func ValidateRate(rate, min float64) error {
	if rate < min || rate > 100 {
		return ErrInvalidRate
	}
	return nil
}

func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

package services

import "github.com/tbourn/go-pos-backend/internal/domain"

// Session actions.
const (
	ActionAppend     = "append"
	ActionPay        = "pay"
	ActionClose      = "close"
	ActionExpire     = "expire"
	ActionForceClose = "force_close"
	ActionCancel     = "cancel" // item cancellation
)

var transitionMap = map[string][]string{
	ActionAppend:     {domain.StatusOpen},
	ActionPay:        {domain.StatusOpen},
	ActionClose:      {domain.StatusOpen},
	ActionExpire:     {domain.StatusOpen},
	ActionForceClose: {domain.StatusOpen},
	ActionCancel:     {domain.StatusOpen},
}

// ValidTransition reports whether action may be applied to a session in
// fromStatus.
func ValidTransition(action, fromStatus string) bool {
	return allowed(transitionMap, action, fromStatus)
}

// cookTransitionMap lists, per target status, the statuses an item may move
// from.
var cookTransitionMap = map[string][]string{
	domain.CookPreparing: {domain.CookOrdered},
	domain.CookReady:     {domain.CookOrdered, domain.CookPreparing},
	domain.CookServed:    {domain.CookReady},
	domain.CookCanceled:  {domain.CookOrdered, domain.CookPreparing, domain.CookReady},
}

// ValidCookTransition reports whether an item in from may move to to.
func ValidCookTransition(from, to string) bool {
	return allowed(cookTransitionMap, to, from)
}

func allowed(m map[string][]string, key, from string) bool {
	statuses, ok := m[key]
	if !ok {
		return false
	}
	for _, status := range statuses {
		if status == from {
			return true
		}
	}
	return false
}

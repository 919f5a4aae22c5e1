package auth

import "github.com/vigild/vigil/internal/domain/account"

type AccessClaims struct {
	Sub string `json:"sub"` // account id
	Iat int64  `json:"iat"` // issued at
	Exp int64  `json:"exp"` // expires at
}

// Identity is the explicit authentication result threaded through
// request handling. The zero value is anonymous.
type Identity struct {
	AccountID account.ID
}

func (i Identity) Authenticated() bool { return i.AccountID != "" }

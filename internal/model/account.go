package model

// Account is a bank account owned by the authenticated user.
type Account struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	Closed      bool   `json:"closed"`
	Created     string `json:"created"`
}

// Balance is the current balance snapshot for an account. Amounts are in
// minor currency units.
type Balance struct {
	Balance      int64  `json:"balance"`
	TotalBalance int64  `json:"total_balance"`
	SpendToday   int64  `json:"spend_today"`
	Currency     string `json:"currency"`
}

// Pot is a savings pot attached to an account.
type Pot struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	Currency   string `json:"currency"`
	GoalAmount int64  `json:"goal_amount,omitempty"`
	Locked     bool   `json:"locked"`
	Deleted    bool   `json:"deleted"`
}

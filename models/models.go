package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Table{},
		&Customer{},
		&MenuItem{},
		&Session{},
		&Order{},
		&Sale{},
		&Debt{},
		&DebtPayment{},
		&Attendance{},
		&Setting{},
		&SystemLog{},
	}
}

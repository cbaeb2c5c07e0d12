package models

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Link{},
		&Report{},
		&Admin{},
		&Developer{},
		&SubscriptionChannel{},
		&Settings{},
		&SystemLog{},
		&Broadcast{},
	}
}

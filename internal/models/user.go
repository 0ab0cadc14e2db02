package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"telegramId"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	Role       UserRole  `json:"role"`
	TotalKg    float64   `json:"totalKg"`
	TotalSpent int64     `json:"totalSpent"`
	CreatedAt  time.Time `json:"createdAt"`
}

package domain

// Permission is a seeded grant identified by its code, e.g.
// "user-management.read". Codes double as authorization policy names.
type Permission struct {
	Code        string
	Name        string
	Description string
}

package entity

// Employee is static reference data keyed by code
type Employee struct {
	Code   int    `json:"code" mapstructure:"code"`
	Name   string `json:"name" mapstructure:"name"`
	Branch string `json:"branch" mapstructure:"branch"`
}

// Bank is static reference data keyed by name
type Bank struct {
	Name string `json:"name" mapstructure:"name"`
}

package types

type ServiceStats struct {
	Service string `json:"service" yaml:"service"`
	Count   int    `json:"count" yaml:"count"`
}

type IPStats struct {
	IP      string `json:"ip" yaml:"ip"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Count   int    `json:"count" yaml:"count"`
}

type CountryStats struct {
	Country string `json:"country" yaml:"country"`
	Count   int    `json:"count" yaml:"count"`
}

type HourStats struct {
	Hour  int `json:"hour" yaml:"hour"`
	Count int `json:"count" yaml:"count"`
}

// Report is the aggregate view over a set of attempts.
type Report struct {
	Total     int            `json:"total" yaml:"total"`
	Skipped   int            `json:"skipped" yaml:"skipped"`
	Services  []ServiceStats `json:"services" yaml:"services"`
	TopIPs    []IPStats      `json:"topIPs" yaml:"topIPs"`
	Hours     []HourStats    `json:"hours" yaml:"hours"`
	Countries []CountryStats `json:"countries,omitempty" yaml:"countries,omitempty"`
}

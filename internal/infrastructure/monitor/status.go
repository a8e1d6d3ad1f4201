package monitor

import "time"

type Status struct {
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"last_check"`
}

func (s Status) clone() Status {
	services := make(map[string]bool, len(s.Services))
	for name, ok := range s.Services {
		services[name] = ok
	}
	return Status{Services: services, LastCheck: s.LastCheck}
}

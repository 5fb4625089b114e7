package analysis

import (
	"net"
	"sort"

	"github.com/l3montree-dev/lowpot/packages/types"
)

const (
	DefaultTopN = 10
	// label for records missing a service or client address
	unknownLabel = "UNKNOWN"
)

// CountryLookup resolves an address to a country code. *dbip.IpToCountry implements it.
type CountryLookup interface {
	Lookup(ip net.IP) string
}

type Options struct {
	// TopN limits the attacking address table. Zero means DefaultTopN, negative means all.
	TopN    int
	Country CountryLookup
}

type counter map[string]int

type kv struct {
	K string
	V int
}

// sorted orders by count descending, then key, so repeated runs print identically.
func (c counter) sorted(n int) []kv {
	kvs := make([]kv, 0, len(c))
	for k, v := range c {
		kvs = append(kvs, kv{k, v})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].V != kvs[j].V {
			return kvs[i].V > kvs[j].V
		}
		return kvs[i].K < kvs[j].K
	})
	if n > 0 && len(kvs) > n {
		kvs = kvs[:n]
	}
	return kvs
}

func labelOf(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}

// Aggregate counts attempts by service, source address, hour of day and, with a
// lookup, country. Records with an unparsable timestamp are left out of the hour table.
func Aggregate(records []types.AttemptRecord, opts Options) types.Report {
	topN := opts.TopN
	if topN == 0 {
		topN = DefaultTopN
	}

	services := counter{}
	ips := counter{}
	countries := counter{}
	hours := make(map[int]int)
	ipCountry := make(map[string]string)

	for _, rec := range records {
		services[labelOf(string(rec.Service))]++
		ip := labelOf(rec.ClientIP)
		ips[ip]++
		if !rec.Timestamp.IsZero() {
			hours[rec.Timestamp.Hour()]++
		}
		if opts.Country != nil {
			country, ok := ipCountry[ip]
			if !ok {
				country = unknownLabel
				if parsed := net.ParseIP(rec.ClientIP); parsed != nil {
					country = opts.Country.Lookup(parsed)
				}
				ipCountry[ip] = country
			}
			countries[country]++
		}
	}

	report := types.Report{
		Total:    len(records),
		Services: make([]types.ServiceStats, 0, len(services)),
		TopIPs:   make([]types.IPStats, 0),
		Hours:    make([]types.HourStats, 0, len(hours)),
	}
	for _, e := range services.sorted(-1) {
		report.Services = append(report.Services, types.ServiceStats{Service: e.K, Count: e.V})
	}
	for _, e := range ips.sorted(topN) {
		report.TopIPs = append(report.TopIPs, types.IPStats{IP: e.K, Country: ipCountry[e.K], Count: e.V})
	}
	for hour := 0; hour < 24; hour++ {
		if count, ok := hours[hour]; ok {
			report.Hours = append(report.Hours, types.HourStats{Hour: hour, Count: count})
		}
	}
	if opts.Country != nil {
		report.Countries = make([]types.CountryStats, 0, len(countries))
		for _, e := range countries.sorted(-1) {
			report.Countries = append(report.Countries, types.CountryStats{Country: e.K, Count: e.V})
		}
	}
	return report
}

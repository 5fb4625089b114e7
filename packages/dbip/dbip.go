// Package dbip resolves addresses to countries using a db-ip.com "IP to Country Lite" CSV
// (start_ip,end_ip,country per line).
package dbip

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"sort"

	"github.com/l3montree-dev/lowpot/packages/utils"
)

const Unknown = "UNKNOWN"

type entry struct {
	start   netip.Addr
	end     netip.Addr
	country string
}

// Compare reports 0 when other.start lies within e.
func (e entry) Compare(other entry) int {
	switch {
	case e.end.Less(other.start):
		return -1
	case other.start.Less(e.start):
		return 1
	default:
		return 0
	}
}

type IpToCountry struct {
	dataset []entry
}

func (i *IpToCountry) Lookup(ip net.IP) string {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return Unknown
	}
	addr = addr.Unmap()
	index := utils.BinarySearch(i.dataset, entry{start: addr, end: addr})
	if index != -1 {
		return i.dataset[index].country
	}
	return Unknown
}

func (i *IpToCountry) Len() int {
	return len(i.dataset)
}

// Read parses the CSV and sorts it by range start. Rows with unparsable addresses are skipped.
func Read(r io.Reader) (*IpToCountry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	result := make([]entry, 0)
	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dbip csv: %w", err)
		}
		if len(line) < 3 {
			continue
		}
		start, err := netip.ParseAddr(line[0])
		if err != nil {
			continue
		}
		end, err := netip.ParseAddr(line[1])
		if err != nil || start.Is4() != end.Is4() {
			continue
		}
		result = append(result, entry{start: start, end: end, country: line[2]})
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].start.Less(result[b].start)
	})
	return &IpToCountry{dataset: result}, nil
}

func NewIpToCountry(path string) (*IpToCountry, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()
	return Read(csvFile)
}

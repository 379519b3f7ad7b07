// Package geoip resolves player addresses to a country using a maxmind
// format database such as https://github.com/geoacumen/geoacumen-country.
package geoip

import (
	"errors"
	"net"
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
)

var (
	ErrOpenDB    = errors.New("failed to open mmdb")
	ErrInvalidIP = errors.New("invalid ip")
	ErrLookup    = errors.New("error trying to lookup address")
)

type Record struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

// Reader answers country lookups. A nil *Reader is valid and reports
// ErrLookup for every query, so an unconfigured database degrades to no
// annotations.
type Reader struct {
	db *maxminddb.Reader
}

func Open(path string) (*Reader, error) {
	db, errOpen := maxminddb.Open(path)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrOpenDB)
	}

	return &Reader{db: db}, nil
}

func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

func (r *Reader) Lookup(address string) (Record, error) {
	var record Record

	if r == nil || r.db == nil {
		return record, ErrLookup
	}

	ip, err := netip.ParseAddr(address)
	if err != nil {
		ips, errHost := net.LookupHost(address)
		if errHost != nil {
			return record, errors.Join(errHost, ErrInvalidIP)
		}

		ip, err = netip.ParseAddr(ips[0])
		if err != nil {
			return record, errors.Join(err, ErrInvalidIP)
		}
	}

	if err = r.db.Lookup(ip).Decode(&record); err != nil {
		return record, errors.Join(err, ErrLookup)
	}

	return record, nil
}

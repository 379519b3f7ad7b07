// Package sid converts between the two textual identity forms used by the
// rest of the app: the bare steam3 triplet ("U:1:123") that keys the record
// store, and the 64 bit numeric form the Steam Web API speaks.
package sid

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

// Baseline added to an account number to produce a 64 bit individual id.
const Steam64Offset int64 = 76561197960265728

var (
	ErrFormat = errors.New("invalid steam id format")

	reTriplet = regexp.MustCompile(`^\[?(U:\d:\d+)\]?$`)
	// Patterns used when scanning arbitrary text blobs for ids.
	reScan32 = regexp.MustCompile(`\[?(U:\d:\d+)\]?`)
	reScan64 = regexp.MustCompile(`7656\d{13}`)
)

// To64 parses the triplet form, with or without surrounding brackets, into
// a full steam id.
func To64(id32 string) (steamid.SteamID, error) {
	match := reTriplet.FindStringSubmatch(strings.TrimSpace(id32))
	if match == nil {
		return steamid.SteamID{}, ErrFormat
	}

	steamID := steamid.New("[" + match[1] + "]")
	if !steamID.Valid() {
		return steamid.SteamID{}, ErrFormat
	}

	return steamID, nil
}

// To32 renders a 64 bit numeric id string back to the bare triplet form.
func To32(id64 string) (string, error) {
	value, errParse := strconv.ParseInt(strings.TrimSpace(id64), 10, 64)
	if errParse != nil {
		return "", errors.Join(errParse, ErrFormat)
	}

	if value < Steam64Offset {
		return "", ErrFormat
	}

	steamID := steamid.New(value)
	if !steamID.Valid() {
		return "", ErrFormat
	}

	return Format32(steamID), nil
}

// Format32 returns the bare triplet form of a steam id, without the
// brackets that Steam3() adds.
func Format32(steamID steamid.SteamID) string {
	return strings.Trim(string(steamID.Steam3()), "[]")
}

// Scan extracts every id embedded in a text blob, in both triplet and 64
// bit forms, in order of appearance. Triplet matches come first, then 64
// bit matches. Substrings that look like an id but fail to decode are
// skipped.
func Scan(contents string) []steamid.SteamID {
	var found []steamid.SteamID

	for _, match := range reScan32.FindAllStringSubmatch(contents, -1) {
		steamID, errConv := To64(match[1])
		if errConv != nil {
			continue
		}
		found = append(found, steamID)
	}

	for _, match := range reScan64.FindAllString(contents, -1) {
		steamID := steamid.New(match)
		if !steamID.Valid() {
			continue
		}
		found = append(found, steamID)
	}

	return found
}

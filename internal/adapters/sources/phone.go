package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"footprint/internal/domain"
)

// PhoneAnalysis derives everything it can about a number from the offline
// numbering-plan metadata: validity, type, formats, region, carrier,
// geocoded area and time zones. It never touches the network.
type PhoneAnalysis struct{}

func NewPhoneAnalysis() *PhoneAnalysis { return &PhoneAnalysis{} }

func (p *PhoneAnalysis) Name() string              { return "phone_analysis" }
func (p *PhoneAnalysis) Category() domain.Category { return domain.CategoryPhoneIntel }
func (p *PhoneAnalysis) Close() error              { return nil }

func (p *PhoneAnalysis) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindPhone }

const unknown = "Unknown"

var numberTypes = map[phonenumbers.PhoneNumberType]string{
	phonenumbers.FIXED_LINE:           "Fixed Line",
	phonenumbers.MOBILE:               "Mobile",
	phonenumbers.FIXED_LINE_OR_MOBILE: "Fixed Line or Mobile",
	phonenumbers.TOLL_FREE:            "Toll Free",
	phonenumbers.PREMIUM_RATE:         "Premium Rate",
	phonenumbers.SHARED_COST:          "Shared Cost",
	phonenumbers.VOIP:                 "VoIP",
	phonenumbers.PERSONAL_NUMBER:      "Personal Number",
	phonenumbers.PAGER:                "Pager",
	phonenumbers.UAN:                  "Universal Access Number",
	phonenumbers.VOICEMAIL:            "Voicemail",
}

// countryLookups are reverse-lookup directories that only make sense for one region.
var countryLookups = map[string]map[string]string{
	"US": {
		"fastpeoplesearch": "https://www.fastpeoplesearch.com/phone/%s",
		"intelius":         "https://www.intelius.com/phone-search/%s",
		"peoplefinder":     "https://www.peoplefinder.com/phone/%s",
	},
	"GB": {
		"bt_phonebook": "https://www.thephonebook.bt.com",
		"192":          "https://www.192.com",
	},
	"CA": {
		"canada411": "https://www.canada411.ca",
	},
	"AU": {
		"whitepages_au": "https://www.whitepages.com.au",
	},
}

func (p *PhoneAnalysis) Invoke(_ context.Context, id domain.Identifier) (domain.SourceResult, error) {
	num, err := phonenumbers.Parse(id.Value, "")
	if err != nil {
		return domain.SourceResult{}, fmt.Errorf("parse phone: %w", err)
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	payload := &domain.PhonePayload{
		PhoneNumber: id.Value,
		Validation: domain.PhoneValidation{
			IsValid:       phonenumbers.IsValidNumber(num),
			IsPossible:    phonenumbers.IsPossibleNumber(num),
			NumberType:    numberType(num),
			E164:          phonenumbers.Format(num, phonenumbers.E164),
			International: phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
			National:      phonenumbers.Format(num, phonenumbers.NATIONAL),
		},
		CountryCode:    num.GetCountryCode(),
		NationalNumber: num.GetNationalNumber(),
		Region:         region,
		Carrier:        unknown,
		Location:       unknown,
		Timezones:      []string{},
		LookupLinks:    lookupLinks(id.Value),
		CountryLinks:   countryLinks(region, id.Value),
	}
	if name, err := phonenumbers.GetCarrierForNumber(num, "en"); err == nil && name != "" {
		payload.Carrier = name
	}
	if loc, err := phonenumbers.GetGeocodingForNumber(num, "en"); err == nil && loc != "" {
		payload.Location = loc
	}
	if zones, err := phonenumbers.GetTimezonesForNumber(num); err == nil {
		for _, z := range zones {
			if z != "" && z != "Etc/Unknown" {
				payload.Timezones = append(payload.Timezones, z)
			}
		}
		sort.Strings(payload.Timezones)
	}
	payload.Risk = assessRisk(payload)
	return domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Phone: payload}}, nil
}

func numberType(num *phonenumbers.PhoneNumber) string {
	if name, ok := numberTypes[phonenumbers.GetNumberType(num)]; ok {
		return name
	}
	return unknown
}

func lookupLinks(phone string) map[string]string {
	p := url.PathEscape(phone)
	return map[string]string{
		"truecaller":   "https://www.truecaller.com/search/us/" + p,
		"whitepages":   "https://www.whitepages.com/phone/" + p,
		"spokeo":       "https://www.spokeo.com/phone-search/" + p,
		"beenverified": "https://www.beenverified.com/phone/" + p,
		"who_called":   "https://www.whocalled.us/lookup/" + p,
	}
}

func countryLinks(region, phone string) map[string]string {
	templates, ok := countryLookups[region]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(templates))
	for name, tmpl := range templates {
		if strings.Contains(tmpl, "%s") {
			out[name] = fmt.Sprintf(tmpl, url.PathEscape(phone))
		} else {
			out[name] = tmpl
		}
	}
	return out
}

// assessRisk scores signals that usually mean a throwaway or spoofed number.
func assessRisk(p *domain.PhonePayload) domain.RiskAssessment {
	r := domain.RiskAssessment{Factors: []string{}, Recommendations: []string{}}
	switch p.Validation.NumberType {
	case "VoIP", unknown:
		r.Factors = append(r.Factors, "VoIP or unknown number type")
		r.Score += 2
		r.Recommendations = append(r.Recommendations, "Verify identity through alternative means", "Be cautious of potential spoofing")
	case "Premium Rate":
		r.Factors = append(r.Factors, "Premium rate number")
		r.Score += 3
	}
	if !p.Validation.IsValid {
		r.Factors = append(r.Factors, "Invalid phone number")
		r.Score += 5
		r.Recommendations = append(r.Recommendations, "Double-check number format and validity")
	}
	if p.Carrier == unknown {
		r.Factors = append(r.Factors, "Unknown carrier")
		r.Score++
		r.Recommendations = append(r.Recommendations, "Research carrier information manually")
	}
	if p.Location == unknown {
		r.Factors = append(r.Factors, "Unknown location")
		r.Score++
	}
	switch {
	case r.Score == 0:
		r.Level = "Low"
	case r.Score <= 3:
		r.Level = "Medium"
	case r.Score <= 6:
		r.Level = "High"
	default:
		r.Level = "Very High"
	}
	if r.Level == "High" || r.Level == "Very High" {
		r.Recommendations = append(r.Recommendations, "Exercise extreme caution")
	}
	return r
}

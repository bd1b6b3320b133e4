package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"footprint/internal/domain"
)

const credentialsRequired = "credentials required"

// needsKey is what a connector reports when its integration is not configured.
func needsKey(hint string) domain.SourceResult {
	return domain.SourceResult{Status: domain.StatusNeedsKey, Warning: credentialsRequired + ": set " + hint}
}

// HIBP looks the email up in HaveIBeenPwned's breach and paste catalogues.
type HIBP struct {
	web     *webClient
	baseURL string
	key     string
}

func NewHIBP(opts Options, key string) *HIBP {
	return &HIBP{web: newWebClient(opts), baseURL: "https://haveibeenpwned.com/api/v3", key: key}
}

func (h *HIBP) Name() string              { return "hibp" }
func (h *HIBP) Category() domain.Category { return domain.CategoryBreaches }
func (h *HIBP) Close() error              { return h.web.Close() }

func (h *HIBP) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

type hibpBreach struct {
	Name        string   `json:"Name"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	AddedDate   string   `json:"AddedDate"`
	PwnCount    int64    `json:"PwnCount"`
	Description string   `json:"Description"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
	IsSensitive bool     `json:"IsSensitive"`
}

type hibpPaste struct {
	Source     string `json:"Source"`
	ID         string `json:"Id"`
	Title      string `json:"Title"`
	Date       string `json:"Date"`
	EmailCount int    `json:"EmailCount"`
}

func (h *HIBP) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	if h.key == "" {
		return needsKey("HAVEIBEENPWNED_API_KEY"), nil
	}
	header := http.Header{"hibp-api-key": {h.key}}
	account := url.PathEscape(id.Value)

	var breaches []hibpBreach
	status, err := h.web.getJSON(ctx, h.baseURL+"/breachedaccount/"+account+"?truncateResponse=false", header, &breaches)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return domain.SourceResult{}, fmt.Errorf("hibp breaches: HTTP %d", status)
	}

	var pastes []hibpPaste
	status, err = h.web.getJSON(ctx, h.baseURL+"/pasteaccount/"+account, header, &pastes)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return domain.SourceResult{}, fmt.Errorf("hibp pastes: HTTP %d", status)
	}

	payload := &domain.BreachPayload{Breaches: make([]domain.Breach, 0, len(breaches))}
	for _, b := range breaches {
		payload.Breaches = append(payload.Breaches, domain.Breach{
			Name:        b.Name,
			Domain:      b.Domain,
			BreachDate:  b.BreachDate,
			AddedDate:   b.AddedDate,
			PwnCount:    b.PwnCount,
			Description: b.Description,
			DataClasses: b.DataClasses,
			IsVerified:  b.IsVerified,
			IsSensitive: b.IsSensitive,
		})
	}
	for _, p := range pastes {
		payload.Pastes = append(payload.Pastes, domain.Paste(p))
	}
	res := domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Breach: payload}}
	if len(payload.Breaches) == 0 && len(payload.Pastes) == 0 {
		res.Status = domain.StatusNoData
	}
	return res, nil
}

// Dehashed searches DeHashed entries by email. Passwords and hashes are never
// copied into the payload.
type Dehashed struct {
	web      *webClient
	baseURL  string
	username string
	key      string
}

func NewDehashed(opts Options, username, key string) *Dehashed {
	return &Dehashed{web: newWebClient(opts), baseURL: "https://api.dehashed.com", username: username, key: key}
}

func (d *Dehashed) Name() string              { return "dehashed" }
func (d *Dehashed) Category() domain.Category { return domain.CategoryBreaches }
func (d *Dehashed) Close() error              { return d.web.Close() }

func (d *Dehashed) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

type dehashedResponse struct {
	Success bool `json:"success"`
	Entries []struct {
		Database string `json:"database_name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
	} `json:"entries"`
}

func (d *Dehashed) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	if d.username == "" || d.key == "" {
		return needsKey("DEHASHED_USERNAME and DEHASHED_API_KEY"), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/search?query="+q("email:"+id.Value), nil)
	if err != nil {
		return domain.SourceResult{}, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(d.username, d.key)
	req.Header.Set("Accept", "application/json")

	var body dehashedResponse
	status, err := d.web.decode(ctx, req, &body)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK {
		return domain.SourceResult{}, fmt.Errorf("dehashed: HTTP %d", status)
	}

	payload := &domain.BreachPayload{Breaches: []domain.Breach{}}
	if body.Success {
		for _, e := range body.Entries {
			payload.Breaches = append(payload.Breaches, domain.Breach{
				Name:     e.Database,
				Database: e.Database,
				Email:    e.Email,
				Username: e.Username,
				FullName: e.Name,
				Phone:    e.Phone,
				Address:  e.Address,
			})
		}
	}
	res := domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Breach: payload}}
	if len(payload.Breaches) == 0 {
		res.Status = domain.StatusNoData
	}
	return res, nil
}

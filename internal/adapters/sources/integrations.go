package sources

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"footprint/internal/domain"
)

// EmailRep fetches the emailrep.io reputation profile.
type EmailRep struct {
	web     *webClient
	baseURL string
	key     string
}

func NewEmailRep(opts Options, key string) *EmailRep {
	return &EmailRep{web: newWebClient(opts), baseURL: "https://emailrep.io", key: key}
}

func (e *EmailRep) Name() string              { return "emailrep" }
func (e *EmailRep) Category() domain.Category { return domain.CategoryEmailRep }
func (e *EmailRep) Close() error              { return e.web.Close() }

func (e *EmailRep) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

func (e *EmailRep) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	if e.key == "" {
		return needsKey("EMAILREP_API_KEY"), nil
	}
	var body map[string]any
	status, err := e.web.getJSON(ctx, e.baseURL+"/"+url.PathEscape(id.Value), http.Header{"Key": {e.key}}, &body)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK {
		return domain.SourceResult{}, fmt.Errorf("emailrep: HTTP %d", status)
	}
	return domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Raw: body}}, nil
}

// Hunter verifies deliverability through hunter.io.
type Hunter struct {
	web     *webClient
	baseURL string
	key     string
}

func NewHunter(opts Options, key string) *Hunter {
	return &Hunter{web: newWebClient(opts), baseURL: "https://api.hunter.io/v2", key: key}
}

func (h *Hunter) Name() string              { return "hunter" }
func (h *Hunter) Category() domain.Category { return domain.CategoryHunter }
func (h *Hunter) Close() error              { return h.web.Close() }

func (h *Hunter) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

func (h *Hunter) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	if h.key == "" {
		return needsKey("HUNTER_API_KEY"), nil
	}
	var body struct {
		Data map[string]any `json:"data"`
	}
	endpoint := h.baseURL + "/email-verifier?email=" + q(id.Value) + "&api_key=" + q(h.key)
	status, err := h.web.getJSON(ctx, endpoint, nil, &body)
	if err != nil {
		return domain.SourceResult{}, err
	}
	if status != http.StatusOK {
		return domain.SourceResult{}, fmt.Errorf("hunter: HTTP %d", status)
	}
	res := domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Raw: body.Data}}
	if len(body.Data) == 0 {
		res.Status = domain.StatusNoData
	}
	return res, nil
}

// resolver is the subset of *net.Resolver the DNS connector uses.
type resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNS resolves the email domain's records and its registration data (RDAP).
type DNS struct {
	resolver resolver
	web      *webClient
	rdapURL  string
}

func NewDNS(opts Options) *DNS {
	return &DNS{resolver: net.DefaultResolver, web: newWebClient(opts), rdapURL: "https://rdap.org/domain/"}
}

func (d *DNS) Name() string              { return "dns" }
func (d *DNS) Category() domain.Category { return domain.CategoryDNS }
func (d *DNS) Close() error              { return d.web.Close() }

func (d *DNS) Supports(kind domain.IdentifierKind) bool { return kind == domain.KindEmail }

func (d *DNS) Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error) {
	host := id.Domain()
	if host == "" {
		return domain.SourceResult{}, fmt.Errorf("no domain in %q", id.Value)
	}
	records := map[string]any{}
	failures := map[string]any{}
	record := func(kind string, values []string, err error) {
		if err != nil {
			failures[kind] = err.Error()
			return
		}
		if len(values) > 0 {
			sort.Strings(values)
			records[kind] = values
		}
	}

	addrs, err := d.resolver.LookupIPAddr(ctx, host)
	var v4, v6 []string
	for _, a := range addrs {
		if a.IP.To4() != nil {
			v4 = append(v4, a.IP.String())
		} else {
			v6 = append(v6, a.IP.String())
		}
	}
	record("A", v4, err)
	record("AAAA", v6, err)

	mx, err := d.resolver.LookupMX(ctx, host)
	var mxs []string
	for _, m := range mx {
		mxs = append(mxs, fmt.Sprintf("%d %s", m.Pref, strings.TrimSuffix(m.Host, ".")))
	}
	record("MX", mxs, err)

	ns, err := d.resolver.LookupNS(ctx, host)
	var nss []string
	for _, n := range ns {
		nss = append(nss, strings.TrimSuffix(n.Host, "."))
	}
	record("NS", nss, err)

	txt, err := d.resolver.LookupTXT(ctx, host)
	record("TXT", txt, err)

	if ctx.Err() != nil {
		return domain.SourceResult{}, ctx.Err()
	}

	raw := map[string]any{"domain": host, "records": records}
	if len(failures) > 0 {
		raw["errors"] = failures
	}
	if reg, err := d.registration(ctx, host); err == nil && reg != nil {
		raw["whois"] = reg
	} else if err != nil {
		raw["whois_error"] = err.Error()
	}

	res := domain.SourceResult{Status: domain.StatusOK, Payload: domain.Payload{Raw: raw}}
	if len(records) == 0 {
		res.Status = domain.StatusNoData
	}
	return res, nil
}

type rdapDomain struct {
	LDHName string   `json:"ldhName"`
	Status  []string `json:"status"`
	Events  []struct {
		Action string `json:"eventAction"`
		Date   string `json:"eventDate"`
	} `json:"events"`
	Entities []struct {
		Roles      []string `json:"roles"`
		VCardArray []any    `json:"vcardArray"`
	} `json:"entities"`
	Nameservers []struct {
		LDHName string `json:"ldhName"`
	} `json:"nameservers"`
}

// registration returns the simplified RDAP record for host, or nil when the
// registry has none.
func (d *DNS) registration(ctx context.Context, host string) (map[string]any, error) {
	var rec rdapDomain
	status, err := d.web.getJSON(ctx, d.rdapURL+url.PathEscape(host), nil, &rec)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("rdap: HTTP %d", status)
	}
	out := map[string]any{"domain_name": strings.ToLower(rec.LDHName)}
	if len(rec.Status) > 0 {
		out["status"] = rec.Status
	}
	for _, ev := range rec.Events {
		switch ev.Action {
		case "registration":
			out["creation_date"] = ev.Date
		case "expiration":
			out["expiration_date"] = ev.Date
		case "last changed":
			out["updated_date"] = ev.Date
		}
	}
	for _, ent := range rec.Entities {
		for _, role := range ent.Roles {
			if role == "registrar" {
				if name := vcardName(ent.VCardArray); name != "" {
					out["registrar"] = name
				}
			}
		}
	}
	var servers []string
	for _, ns := range rec.Nameservers {
		servers = append(servers, strings.ToLower(ns.LDHName))
	}
	if len(servers) > 0 {
		out["name_servers"] = servers
	}
	return out, nil
}

// vcardName pulls the "fn" property out of a jCard: ["vcard", [[name, params, type, value], ...]].
func vcardName(card []any) string {
	if len(card) < 2 {
		return ""
	}
	props, ok := card[1].([]any)
	if !ok {
		return ""
	}
	for _, p := range props {
		fields, ok := p.([]any)
		if !ok || len(fields) < 4 {
			continue
		}
		if name, _ := fields[0].(string); name == "fn" {
			value, _ := fields[3].(string)
			return value
		}
	}
	return ""
}

package service

import "context"

// Stats is the dashboard summary.
type Stats struct {
	TotalDomains        int `json:"totalDomains"`
	ActiveDomains       int `json:"activeDomains"`
	CredentialAccounts  int `json:"credentialAccounts"`
	NotificationTargets int `json:"notificationTargets"`
	CachedZones         int `json:"cachedZones"`
}

type StatsReader interface {
	AccountRepository
	TargetRepository
	ZoneRepository
	DomainRepository
}

func CollectStats(ctx context.Context, r StatsReader) (*Stats, error) {
	domains, err := r.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	targets, err := r.ListTargets(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		TotalDomains:        len(domains),
		CredentialAccounts:  len(accounts),
		NotificationTargets: len(targets),
	}
	for _, d := range domains {
		if d.Active {
			st.ActiveDomains++
		}
	}
	for _, a := range accounts {
		zones, err := r.ListZones(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		st.CachedZones += len(zones)
	}
	return st, nil
}

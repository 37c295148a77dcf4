package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/model"
)

const DefaultRegion = "eu-west-3"

// SupportedRegions is the region enumeration accepted for credential accounts.
var SupportedRegions = []string{
	"eu-west-3",
	"eu-west-1",
	"eu-west-2",
	"eu-central-1",
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-south-1",
	"sa-east-1",
	"ca-central-1",
}

type NewAccount struct {
	Name            string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Accounts is the credential account store.
type Accounts struct {
	repo  AccountRepository
	audit *Auditor
	log   *zap.SugaredLogger
}

func NewAccounts(repo AccountRepository, audit *Auditor, log *zap.SugaredLogger) *Accounts {
	return &Accounts{repo: repo, audit: audit, log: log}
}

func (s *Accounts) List(ctx context.Context) ([]model.CredentialAccount, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *Accounts) Create(ctx context.Context, in NewAccount) (*model.CredentialAccount, error) {
	a := &model.CredentialAccount{
		Name:            strings.TrimSpace(in.Name),
		AccessKeyID:     strings.TrimSpace(in.AccessKeyID),
		SecretAccessKey: in.SecretAccessKey,
		Region:          strings.TrimSpace(in.Region),
	}
	if a.Region == "" {
		a.Region = DefaultRegion
	}
	switch {
	case a.Name == "":
		return nil, apperr.Validation("name is required")
	case a.AccessKeyID == "":
		return nil, apperr.Validation("access key id is required")
	case a.SecretAccessKey == "":
		return nil, apperr.Validation("secret access key is required")
	case !slices.Contains(SupportedRegions, a.Region):
		return nil, apperr.Validation("unsupported region %q", a.Region)
	}

	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "create_account", "credential_account", a.ID, "name="+a.Name+" region="+a.Region)
	s.log.Infow("credential account created", "account_id", a.ID, "region", a.Region, "caller", auth.CallerFrom(ctx).Username)
	return a, nil
}

// Delete removes an account and its cached zones.  It fails with Conflict
// while any domain references the account.
func (s *Accounts) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "delete_account", "credential_account", id, "")
	s.log.Infow("credential account deleted", "account_id", id, "caller", auth.CallerFrom(ctx).Username)
	return nil
}

// Package provider talks to AWS Route53 on behalf of credential accounts.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"golang.org/x/net/idna"

	"dynroute53/internal/model"
)

// Route53 lists hosted zones with the keys of a credential account.  Each
// call builds its own client, so accounts never share credentials.
type Route53 struct {
	endpoint string
}

// NewRoute53 returns a zone lister.  endpoint overrides the Route53 API
// endpoint when not empty.
func NewRoute53(endpoint string) *Route53 {
	return &Route53{endpoint: endpoint}
}

func (p *Route53) client(ctx context.Context, account model.CredentialAccount) (*route53.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(account.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				account.AccessKeyID,
				account.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return route53.NewFromConfig(awsCfg, func(o *route53.Options) {
		if p.endpoint != "" {
			o.BaseEndpoint = aws.String(p.endpoint)
		}
	}), nil
}

func (p *Route53) ListZones(ctx context.Context, account model.CredentialAccount) ([]model.Zone, error) {
	client, err := p.client(ctx, account)
	if err != nil {
		return nil, err
	}

	var zones []model.Zone
	var marker *string
	for {
		result, err := client.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
		if err != nil {
			return nil, err
		}
		for _, z := range result.HostedZones {
			zones = append(zones, toZone(z))
		}
		if !result.IsTruncated || result.NextMarker == nil {
			break
		}
		marker = result.NextMarker
	}
	return zones, nil
}

func toZone(z types.HostedZone) model.Zone {
	return model.Zone{
		ID:          extractZoneID(aws.ToString(z.Id)),
		Name:        displayName(aws.ToString(z.Name)),
		RecordCount: aws.ToInt64(z.ResourceRecordSetCount),
		Comment:     safeComment(z.Config),
		Private:     z.Config != nil && z.Config.PrivateZone,
	}
}

// extractZoneID drops the "/hostedzone/" prefix Route53 puts on zone ids.
func extractZoneID(fullID string) string {
	parts := strings.Split(fullID, "/")
	return parts[len(parts)-1]
}

func safeComment(cfg *types.HostedZoneConfig) string {
	if cfg != nil && cfg.Comment != nil {
		return *cfg.Comment
	}
	return ""
}

// displayName turns punycode labels into Unicode.  Names that fail to
// decode are returned as Route53 sent them.
func displayName(name string) string {
	trimmed := strings.TrimSuffix(name, ".")
	u, err := idna.ToUnicode(trimmed)
	if err != nil {
		return name
	}
	if strings.HasSuffix(name, ".") {
		u += "."
	}
	return u
}

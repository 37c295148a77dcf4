package model

import "time"

type RecordType string

const (
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

func (t RecordType) Valid() bool {
	return t == RecordTypeA || t == RecordTypeAAAA
}

// CredentialAccount is one Route53 key pair plus the region it acts in.
// The secret is never serialized; it is only read back by provider calls.
type CredentialAccount struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	AccessKeyID     string    `json:"accessKeyId" db:"access_key_id"`
	SecretAccessKey string    `json:"-" db:"secret_access_key"`
	Region          string    `json:"region" db:"region"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type NotificationTarget struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	WebhookURL string    `json:"webhookUrl" db:"webhook_url"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Zone is a cached provider zone.  Zones are only ever replaced as a whole
// set per credential account.
type Zone struct {
	ID                  string    `json:"id" db:"zone_id"`
	Name                string    `json:"name" db:"name"`
	RecordCount         int64     `json:"recordCount" db:"record_count"`
	Comment             string    `json:"comment" db:"comment"`
	Private             bool      `json:"private" db:"private"`
	CredentialAccountID int64     `json:"credentialAccountId" db:"account_id"`
	RefreshedAt         time.Time `json:"refreshedAt" db:"refreshed_at"`
}

type Domain struct {
	ID                   int64      `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	ZoneID               string     `json:"zoneId" db:"zone_id"`
	RecordType           RecordType `json:"recordType" db:"record_type"`
	TTL                  int64      `json:"ttl" db:"ttl"`
	Active               bool       `json:"active" db:"active"`
	CredentialAccountID  int64      `json:"credentialAccountId" db:"account_id"`
	NotificationTargetID *int64     `json:"notificationTargetId" db:"target_id"`
	LastIP               *string    `json:"lastIp" db:"last_ip"`
	LastUpdated          *time.Time `json:"lastUpdated" db:"last_updated"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

type Setting struct {
	Key         string       `json:"key"`
	Kind        SettingKind  `json:"kind"`
	Value       SettingValue `json:"value"`
	Default     SettingValue `json:"defaultValue"`
	Description string       `json:"description"`
	System      bool         `json:"isSystem"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type User struct {
	ID         int64     `json:"id" db:"id"`
	Username   string    `json:"username" db:"username"`
	PassHash   string    `json:"-" db:"pass_hash"`
	Role       string    `json:"role" db:"role"`
	Active     bool      `json:"active" db:"active"`
	AuthSource string    `json:"authSource" db:"auth_source"` // "local" or "ldap"
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type AuditEntry struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  string    `json:"entityId" db:"entity_id"`
	Detail    string    `json:"detail" db:"detail"`
	IPAddress string    `json:"ipAddress" db:"ip_address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

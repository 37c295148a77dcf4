package secrets

import "testing"

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref     string
		want    Ref
		wantErr bool
	}{
		{"vault:secret/dynroute53/db#dsn", Ref{Mount: "secret", Path: "dynroute53/db", Key: "dsn"}, false},
		{"vault:/kv/ldap/#password", Ref{Mount: "kv", Path: "ldap", Key: "password"}, false},
		{"secret/dynroute53#dsn", Ref{}, true},
		{"vault:secret/dynroute53", Ref{}, true},
		{"vault:secret#dsn", Ref{}, true},
		{"vault:secret/db#", Ref{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

package wapi

import (
	"wapi/common"
	"wapi/config"
	"wapi/providers"
	"wapi/store"
)

// ManagedRecord is one DNS record the engine keeps pointed at a resolved
// address.
type ManagedRecord struct {
	// Domain is the fully qualified record name.
	Domain string
	Type   common.RecordType
	// Account names the provider account the record updates through.
	Account string
	// Address names the resolved address the record follows.
	Address string
	// TTL in seconds; zero defers to the account or provider default.
	TTL int
}

func fromSpec(s config.RecordSpec) ManagedRecord {
	return ManagedRecord{
		Domain:  s.Domain,
		Type:    s.Type,
		Account: s.Account,
		Address: s.Address,
		TTL:     s.TTL,
	}
}

// Records converts configured record specs into managed records.
func Records(specs []config.RecordSpec) []ManagedRecord {
	records := make([]ManagedRecord, 0, len(specs))
	for _, s := range specs {
		records = append(records, fromSpec(s))
	}
	return records
}

func (r ManagedRecord) key() store.Key {
	return store.Key{Provider: r.Account, Domain: r.Domain, Type: r.Type}
}

func (r ManagedRecord) providerRecord() providers.Record {
	return providers.Record{Domain: r.Domain, Type: r.Type, TTL: r.TTL}
}

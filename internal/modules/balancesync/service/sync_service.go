package service

import "studyhub/internal/modules/balancesync/domain"

// SyncService decides which pushed changes reach the ledger.
type SyncService struct {
	origin string
}

func NewSyncService(origin string) *SyncService {
	return &SyncService{origin: origin}
}

// Accept drops echoes of this process's own publishes and changes for
// any user other than the subscribed one.
func (s *SyncService) Accept(userID string, change domain.BalanceChange) bool {
	if change.UserID != userID {
		return false
	}
	if s.origin != "" && change.Origin == s.origin {
		return false
	}
	return change.Validate() == nil
}

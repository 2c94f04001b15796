package provenance

import (
	"fmt"
	"slices"

	"github.com/truesource/storefront/internal/domain"
)

// aggregate orders the transfers by block and derives the owner lists.
// Transfers in the same block keep their retrieval order.
func aggregate(tokenID, currentOwner string, transfers []domain.TransferEvent, lookbackBlocks uint64) *domain.ProvenanceSummary {
	sorted := slices.Clone(transfers)
	if sorted == nil {
		sorted = []domain.TransferEvent{}
	}
	slices.SortStableFunc(sorted, func(a, b domain.TransferEvent) int {
		switch {
		case a.BlockNumber < b.BlockNumber:
			return -1
		case a.BlockNumber > b.BlockNumber:
			return 1
		}
		return 0
	})

	allOwners := uniqueRecipients(sorted)
	previousOwners := []string{}
	if len(allOwners) > 1 {
		previousOwners = slices.Clone(allOwners[:len(allOwners)-1])
	}

	summary := &domain.ProvenanceSummary{
		TokenID:        tokenID,
		CurrentOwner:   currentOwner,
		PreviousOwners: previousOwners,
		AllOwners:      allOwners,
		TotalTransfers: len(sorted),
		Transfers:      sorted,
	}
	if summary.TotalTransfers == 0 {
		summary.Note = fmt.Sprintf("Scanned last %d blocks. No transfers found.", lookbackBlocks)
	}

	return summary
}

// uniqueRecipients returns the recipients in order of first appearance,
// comparing addresses case-insensitively and keeping the first casing seen
func uniqueRecipients(transfers []domain.TransferEvent) []string {
	seen := make(map[string]struct{}, len(transfers))
	owners := []string{}
	for _, t := range transfers {
		key := domain.NormalizeAddress(t.To)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		owners = append(owners, t.To)
	}
	return owners
}

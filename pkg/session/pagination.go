package session

import "github.com/rustybot/rustybot/pkg/provider"

// PageSize is the fixed number of entries per page, an external UI
// constraint of the select-menu widget.
const PageSize = 25

// OfferList is the pagination session payload: a de-duplicated offer
// list with a cursor, mutated in place by page navigation.
type OfferList struct {
	CorpID   int64
	CorpName string
	Offers   []provider.LoyaltyOffer
	Page     int
}

// TotalPages returns the page count, at least 1.
func (p *OfferList) TotalPages() int {
	n := (len(p.Offers) + PageSize - 1) / PageSize
	if n < 1 {
		n = 1
	}
	return n
}

// PageSlice returns the offers on the current page.
func (p *OfferList) PageSlice() []provider.LoyaltyOffer {
	start := p.Page * PageSize
	if start >= len(p.Offers) {
		return nil
	}
	end := start + PageSize
	if end > len(p.Offers) {
		end = len(p.Offers)
	}
	return p.Offers[start:end]
}

// clampPage bounds a cursor to [0, TotalPages-1].
func (p *OfferList) clampPage(page int) int {
	if page < 0 {
		return 0
	}
	if max := p.TotalPages() - 1; page > max {
		return max
	}
	return page
}

// NextPage advances the stored cursor, clamped to the last page, and
// returns the new cursor.
func (s *Store) NextPage(id string) (int, error) {
	return s.movePage(id, +1)
}

// PrevPage moves the stored cursor back, clamped to the first page,
// and returns the new cursor.
func (s *Store) PrevPage(id string) (int, error) {
	return s.movePage(id, -1)
}

func (s *Store) movePage(id string, delta int) (int, error) {
	var page int
	err := s.update(id, func(sess *Session) error {
		list, ok := sess.Payload.(*OfferList)
		if !ok {
			return ErrExpired
		}
		list.Page = list.clampPage(list.Page + delta)
		page = list.Page
		return nil
	})
	return page, err
}

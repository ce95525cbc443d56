package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/types"
)

// ==================== Offering models ====================

type offeringModel struct {
	grove.BaseModel `grove:"table:sto_offerings"`

	ID                 string          `grove:"id,pk"`
	Terms              json.RawMessage `grove:"terms,type:jsonb"`
	TokensSold         int64           `grove:"tokens_sold"`
	TokenAsset         string          `grove:"token_asset"`
	FundsRaised        int64           `grove:"funds_raised"`
	FundingAsset       string          `grove:"funding_asset"`
	Closed             bool            `grove:"closed"`
	Finalized          bool            `grove:"finalized"`
	SoftCapAtFinalize  bool            `grove:"soft_cap_at_finalize"`
	RefundsInitialized bool            `grove:"refunds_initialized"`
	MintingInitialized bool            `grove:"minting_initialized"`
	FundsReleased      bool            `grove:"funds_released"`
	CreatedAt          time.Time       `grove:"created_at"`
	UpdatedAt          time.Time       `grove:"updated_at"`
}

func toOfferingModel(snap *offering.Snapshot) *offeringModel {
	terms, _ := json.Marshal(snap.Terms) //nolint:errcheck // best-effort

	return &offeringModel{
		ID:                 snap.ID.String(),
		Terms:              terms,
		TokensSold:         snap.TokensSold.Units,
		TokenAsset:         snap.TokensSold.Asset,
		FundsRaised:        snap.FundsRaised.Units,
		FundingAsset:       snap.FundsRaised.Asset,
		Closed:             snap.Closed,
		Finalized:          snap.Finalized,
		SoftCapAtFinalize:  snap.SoftCapAtFinalize,
		RefundsInitialized: snap.RefundsInitialized,
		MintingInitialized: snap.MintingInitialized,
		FundsReleased:      snap.FundsReleased,
		CreatedAt:          snap.CreatedAt,
		UpdatedAt:          snap.UpdatedAt,
	}
}

func fromOfferingModel(m *offeringModel) (*offering.Snapshot, error) {
	offeringID, err := id.ParseOfferingID(m.ID)
	if err != nil {
		return nil, err
	}

	var terms offering.Terms
	if len(m.Terms) > 0 {
		if err := json.Unmarshal(m.Terms, &terms); err != nil {
			return nil, err
		}
	}

	return &offering.Snapshot{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 offeringID,
		Terms:              terms,
		TokensSold:         types.NewAmount(m.TokensSold, m.TokenAsset),
		FundsRaised:        types.NewAmount(m.FundsRaised, m.FundingAsset),
		Closed:             m.Closed,
		Finalized:          m.Finalized,
		SoftCapAtFinalize:  m.SoftCapAtFinalize,
		RefundsInitialized: m.RefundsInitialized,
		MintingInitialized: m.MintingInitialized,
		FundsReleased:      m.FundsReleased,
	}, nil
}

// ==================== Investor models ====================

type investorModel struct {
	grove.BaseModel `grove:"table:sto_investors"`

	// ID is "<offering>:<address>" so each record has a single-column PK.
	ID              string    `grove:"id,pk"`
	OfferingID      string    `grove:"offering_id"`
	Address         string    `grove:"address"`
	Invested        int64     `grove:"invested"`
	InvestedAsset   string    `grove:"invested_asset"`
	Allocation      int64     `grove:"allocation"`
	AllocationAsset string    `grove:"allocation_asset"`
	Position        int       `grove:"position"`
	RefundClaimed   bool      `grove:"refund_claimed"`
	TokensClaimed   bool      `grove:"tokens_claimed"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func investorKey(offeringID id.OfferingID, addr types.Address) string {
	return offeringID.String() + ":" + addr.String()
}

func toInvestorModel(offeringID id.OfferingID, rec *escrow.InvestorRecord) *investorModel {
	return &investorModel{
		ID:              investorKey(offeringID, rec.Address),
		OfferingID:      offeringID.String(),
		Address:         rec.Address.String(),
		Invested:        rec.Invested.Units,
		InvestedAsset:   rec.Invested.Asset,
		Allocation:      rec.Allocation.Units,
		AllocationAsset: rec.Allocation.Asset,
		Position:        rec.Position,
		RefundClaimed:   rec.RefundClaimed,
		TokensClaimed:   rec.TokensClaimed,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func fromInvestorModel(m *investorModel) *escrow.InvestorRecord {
	return &escrow.InvestorRecord{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Address:       types.Addr(m.Address),
		Invested:      types.NewAmount(m.Invested, m.InvestedAsset),
		Allocation:    types.NewAmount(m.Allocation, m.AllocationAsset),
		Position:      m.Position,
		RefundClaimed: m.RefundClaimed,
		TokensClaimed: m.TokensClaimed,
	}
}

// ==================== Journal models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:sto_events"`

	ID            string    `grove:"id,pk"`
	OfferingID    string    `grove:"offering_id"`
	Kind          string    `grove:"kind"`
	Investor      string    `grove:"investor"`
	InvestedUnits int64     `grove:"invested_units"`
	InvestedAsset string    `grove:"invested_asset"`
	TokenUnits    int64     `grove:"token_units"`
	TokenAsset    string    `grove:"token_asset"`
	Note          string    `grove:"note"`
	At            time.Time `grove:"at"`
}

func toEventModel(e *journal.Entry) *eventModel {
	return &eventModel{
		ID:            e.ID.String(),
		OfferingID:    e.OfferingID.String(),
		Kind:          string(e.Kind),
		Investor:      e.Investor.String(),
		InvestedUnits: e.Invested.Units,
		InvestedAsset: e.Invested.Asset,
		TokenUnits:    e.Tokens.Units,
		TokenAsset:    e.Tokens.Asset,
		Note:          e.Note,
		At:            e.At,
	}
}

func fromEventModel(m *eventModel) (*journal.Entry, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	offeringID, err := id.ParseOfferingID(m.OfferingID)
	if err != nil {
		return nil, err
	}

	return &journal.Entry{
		ID:         eventID,
		OfferingID: offeringID,
		Kind:       journal.Kind(m.Kind),
		Investor:   types.Address(m.Investor),
		Invested:   types.NewAmount(m.InvestedUnits, m.InvestedAsset),
		Tokens:     types.NewAmount(m.TokenUnits, m.TokenAsset),
		Note:       m.Note,
		At:         m.At,
	}, nil
}

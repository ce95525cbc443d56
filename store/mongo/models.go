package mongo

import (
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

	ID                 string     `grove:"id,pk"                bson:"_id"`
	Terms              termsModel `grove:"terms"                bson:"terms"`
	TokensSold         int64      `grove:"tokens_sold"          bson:"tokens_sold"`
	TokenAsset         string     `grove:"token_asset"          bson:"token_asset"`
	FundsRaised        int64      `grove:"funds_raised"         bson:"funds_raised"`
	FundingAsset       string     `grove:"funding_asset"        bson:"funding_asset"`
	Closed             bool       `grove:"closed"               bson:"closed"`
	Finalized          bool       `grove:"finalized"            bson:"finalized"`
	SoftCapAtFinalize  bool       `grove:"soft_cap_at_finalize" bson:"soft_cap_at_finalize"`
	RefundsInitialized bool       `grove:"refunds_initialized"  bson:"refunds_initialized"`
	MintingInitialized bool       `grove:"minting_initialized"  bson:"minting_initialized"`
	FundsReleased      bool       `grove:"funds_released"       bson:"funds_released"`
	CreatedAt          time.Time  `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at"           bson:"updated_at"`
}

type termsModel struct {
	StartTime                  time.Time `bson:"start_time"`
	EndTime                    time.Time `bson:"end_time"`
	HardCapUnits               int64     `bson:"hard_cap_units"`
	SoftCapUnits               int64     `bson:"soft_cap_units"`
	PriceUnits                 int64     `bson:"price_units"`
	MinInvestmentUnits         int64     `bson:"min_investment_units"`
	InvestmentAsset            string    `bson:"investment_asset"`
	SecurityAsset              string    `bson:"security_asset"`
	FundsReceiver              string    `bson:"funds_receiver"`
	ControllerAccount          string    `bson:"controller_account"`
	EscrowAccount              string    `bson:"escrow_account"`
	AllowBeneficialInvestments bool      `bson:"allow_beneficial_investments"`
}

func toTermsModel(t offering.Terms) termsModel {
	return termsModel{
		StartTime:                  t.StartTime,
		EndTime:                    t.EndTime,
		HardCapUnits:               t.HardCap.Units,
		SoftCapUnits:               t.SoftCap.Units,
		PriceUnits:                 t.PricePerToken.Units,
		MinInvestmentUnits:         t.MinInvestment.Units,
		InvestmentAsset:            t.InvestmentAsset,
		SecurityAsset:              t.SecurityAsset,
		FundsReceiver:              t.FundsReceiver.String(),
		ControllerAccount:          t.ControllerAccount.String(),
		EscrowAccount:              t.EscrowAccount.String(),
		AllowBeneficialInvestments: t.AllowBeneficialInvestments,
	}
}

func fromTermsModel(m termsModel) offering.Terms {
	return offering.Terms{
		StartTime:                  m.StartTime,
		EndTime:                    m.EndTime,
		HardCap:                    types.NewAmount(m.HardCapUnits, m.SecurityAsset),
		SoftCap:                    types.NewAmount(m.SoftCapUnits, m.SecurityAsset),
		PricePerToken:              types.NewAmount(m.PriceUnits, m.InvestmentAsset),
		MinInvestment:              types.NewAmount(m.MinInvestmentUnits, m.InvestmentAsset),
		InvestmentAsset:            m.InvestmentAsset,
		SecurityAsset:              m.SecurityAsset,
		FundsReceiver:              types.Address(m.FundsReceiver),
		ControllerAccount:          types.Address(m.ControllerAccount),
		EscrowAccount:              types.Address(m.EscrowAccount),
		AllowBeneficialInvestments: m.AllowBeneficialInvestments,
	}
}

func toOfferingModel(snap *offering.Snapshot) *offeringModel {
	return &offeringModel{
		ID:                 snap.ID.String(),
		Terms:              toTermsModel(snap.Terms),
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

	return &offering.Snapshot{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 offeringID,
		Terms:              fromTermsModel(m.Terms),
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

	// ID is "<offering>:<address>" so each record has a single document key.
	ID              string    `grove:"id,pk"            bson:"_id"`
	OfferingID      string    `grove:"offering_id"      bson:"offering_id"`
	Address         string    `grove:"address"          bson:"address"`
	Invested        int64     `grove:"invested"         bson:"invested"`
	InvestedAsset   string    `grove:"invested_asset"   bson:"invested_asset"`
	Allocation      int64     `grove:"allocation"       bson:"allocation"`
	AllocationAsset string    `grove:"allocation_asset" bson:"allocation_asset"`
	Position        int       `grove:"position"         bson:"position"`
	RefundClaimed   bool      `grove:"refund_claimed"   bson:"refund_claimed"`
	TokensClaimed   bool      `grove:"tokens_claimed"   bson:"tokens_claimed"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
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

	ID            string    `grove:"id,pk"          bson:"_id"`
	OfferingID    string    `grove:"offering_id"    bson:"offering_id"`
	Kind          string    `grove:"kind"           bson:"kind"`
	Investor      string    `grove:"investor"       bson:"investor"`
	InvestedUnits int64     `grove:"invested_units" bson:"invested_units"`
	InvestedAsset string    `grove:"invested_asset" bson:"invested_asset"`
	TokenUnits    int64     `grove:"token_units"    bson:"token_units"`
	TokenAsset    string    `grove:"token_asset"    bson:"token_asset"`
	Note          string    `grove:"note"           bson:"note"`
	At            time.Time `grove:"at"             bson:"at"`
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

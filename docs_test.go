package sto_test

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/sto"
	assetmem "github.com/xraph/sto/asset/memory"
	"github.com/xraph/sto/offering"
	storemem "github.com/xraph/sto/store/memory"
)

func Example() {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)

	funds := assetmem.NewBook("usdc")
	tokens := assetmem.NewBook("acme-st")
	funds.Mint(sto.Addr("alice"), 50_000)

	engine, err := sto.New(storemem.New(), offering.Terms{
		StartTime:         start,
		EndTime:           start.Add(30 * 24 * time.Hour),
		HardCap:           sto.NewAmount(100_000, "acme-st"),
		SoftCap:           sto.NewAmount(1_000, "acme-st"),
		PricePerToken:     sto.NewAmount(10, "usdc"),
		InvestmentAsset:   "usdc",
		SecurityAsset:     "acme-st",
		FundsReceiver:     sto.Addr("treasury"),
		ControllerAccount: sto.Addr("controller"),
		EscrowAccount:     sto.Addr("escrow"),
	},
		sto.WithAssets(funds, tokens),
		sto.WithClock(func() time.Time { return now }),
	)
	if err != nil {
		fmt.Println("new:", err)
		return
	}
	if err := engine.Start(ctx); err != nil {
		fmt.Println("start:", err)
		return
	}
	defer engine.Stop()

	receipt, err := engine.Purchase(ctx, sto.Addr("alice"), sto.Addr("alice"), sto.NewAmount(5_000, "usdc"))
	if err != nil {
		fmt.Println("purchase:", err)
		return
	}
	fmt.Println("tokens:", receipt.Tokens.String())
	fmt.Println("invested:", receipt.Invested.String())
	fmt.Println("sold:", engine.TokensSold().String())
	// Output:
	// tokens: 500 acme-st
	// invested: 5000 usdc
	// sold: 500 acme-st
}

func ExampleEngine_Finalize() {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)

	funds := assetmem.NewBook("usdc")
	tokens := assetmem.NewBook("acme-st")
	funds.Mint(sto.Addr("alice"), 20_000)
	operator := sto.Addr("operator")

	engine, err := sto.New(storemem.New(), offering.Terms{
		StartTime:         start,
		EndTime:           start.Add(24 * time.Hour),
		HardCap:           sto.NewAmount(100_000, "acme-st"),
		SoftCap:           sto.NewAmount(1_000, "acme-st"),
		PricePerToken:     sto.NewAmount(10, "usdc"),
		InvestmentAsset:   "usdc",
		SecurityAsset:     "acme-st",
		FundsReceiver:     sto.Addr("treasury"),
		ControllerAccount: sto.Addr("controller"),
		EscrowAccount:     sto.Addr("escrow"),
	},
		sto.WithAssets(funds, tokens),
		sto.WithClock(func() time.Time { return now }),
		sto.WithCapabilities(sto.StaticCapabilities{operator: {sto.RoleOperator}}),
	)
	if err != nil {
		fmt.Println("new:", err)
		return
	}
	if err := engine.Start(ctx); err != nil {
		fmt.Println("start:", err)
		return
	}
	defer engine.Stop()

	if _, err := engine.Purchase(ctx, sto.Addr("alice"), sto.Addr("alice"), sto.NewAmount(20_000, "usdc")); err != nil {
		fmt.Println("purchase:", err)
		return
	}

	// Past the end time the operator settles the offering. The soft cap was
	// reached, so funds release and tokens deliver.
	now = start.Add(25 * time.Hour)
	if err := engine.Finalize(ctx, operator); err != nil {
		fmt.Println("finalize:", err)
		return
	}

	fmt.Println("status:", engine.Status())
	balance, _ := tokens.Balance(ctx, sto.Addr("alice"))
	fmt.Println("delivered:", balance.String())
	raised, _ := funds.Balance(ctx, sto.Addr("treasury"))
	fmt.Println("released:", raised.String())
	// Output:
	// status: minting
	// delivered: 2000 acme-st
	// released: 20000 usdc
}

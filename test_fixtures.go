package main

import (
	"mliatlas/internal/mli"
)

// mockMetrics derives a full observation from income and cost of
// living, the same way the dataset pipeline computes the stored values.
func mockMetrics(income, col float64) mli.YearMetrics {
	return mli.YearMetrics{
		MLI:        income / col,
		Income:     income,
		Col:        col,
		Surplus:    income - col,
		SurplusPct: (income - col) / income * 100,
	}
}

// MockDataset builds a four-state dataset covering 2018-2023. Cost of
// living is held at 80000 everywhere so each state's MLI trajectory is
// exact and easy to assert against:
//
//	Utah   climbs  1.17 -> 1.22 (large surplus in 2023)
//	Ohio   climbs  1.055 -> 1.08 (small surplus)
//	Maine  flat at 0.97 (near break-even)
//	Hawaii falls   0.89 -> 0.84 (deep deficit)
func MockDataset() *mli.Dataset {
	const col = 80000.0

	trajectories := map[string]struct {
		income2023 float64
		yearlyStep float64
	}{
		"Utah":   {97600, 800},
		"Ohio":   {86400, 400},
		"Maine":  {77600, 0},
		"Hawaii": {67200, -800},
	}

	years := []int{2018, 2019, 2020, 2021, 2022, 2023}

	ds := &mli.Dataset{
		Years:    years,
		States:   make(map[string]mli.StateRecord, len(trajectories)),
		National: make(map[int]mli.NationalAverages, len(years)),
		Metadata: map[string]any{"source": "fixture"},
	}

	for name, tr := range trajectories {
		ts := make(map[int]mli.YearMetrics, len(years))
		for _, year := range years {
			income := tr.income2023 - float64(2023-year)*tr.yearlyStep
			ts[year] = mockMetrics(income, col)
		}

		latest := ts[2023]
		rec := mli.StateRecord{
			Name:       name,
			Timeseries: ts,
			Latest: mli.LatestSnapshot{
				Year:       2023,
				MLI:        latest.MLI,
				Income:     latest.Income,
				Col:        latest.Col,
				Surplus:    latest.Surplus,
				SurplusPct: latest.SurplusPct,
			},
		}
		if name == "Utah" {
			rec.Latest.Categories = map[string]mli.CategoryCost{
				"housing":        {Cost: 28000},
				"groceries":      {Cost: 12000},
				"transportation": {Cost: 9000},
			}
		}
		ds.States[name] = rec
	}

	for _, year := range years {
		var sumMLI, sumIncome, sumCol, sumSurplus float64
		for _, rec := range ds.States {
			ym := rec.Timeseries[year]
			sumMLI += ym.MLI
			sumIncome += ym.Income
			sumCol += ym.Col
			sumSurplus += ym.Surplus
		}
		n := float64(len(ds.States))
		ds.National[year] = mli.NationalAverages{
			AvgMLI:     sumMLI / n,
			AvgIncome:  sumIncome / n,
			AvgCol:     sumCol / n,
			AvgSurplus: sumSurplus / n,
		}
	}

	return ds
}

// MockDivergence builds a divergence analysis consistent with
// MockDataset's 2018-2023 window. StateChanges arrive in state order,
// the way the generator writes them.
func MockDivergence() *Divergence {
	return &Divergence{
		Summary20182023: DivergenceSummary{
			BaselineYear:       2018,
			FinalYear:          2023,
			SP500Gain:          86.1,
			IncomeGain:         12.4,
			ColGain:            0.0,
			MLIGain:            0.4,
			MiddleClassCapture: 0.5,
		},
		Comparison2018: []MarketPoint{
			{Year: 2018, SP500Indexed: 100, IncomeIndexed: 100, ColIndexed: 100, MLIIndexed: 100},
			{Year: 2020, SP500Indexed: 134, IncomeIndexed: 104, ColIndexed: 100, MLIIndexed: 104},
			{Year: 2023, SP500Indexed: 186, IncomeIndexed: 112, ColIndexed: 100, MLIIndexed: 112},
		},
		SavingsTimeline: []SavingsPoint{
			{Year: 2018, StatesCanSave: 1, StatesPaycheck: 2, StatesDeficit: 1},
			{Year: 2023, StatesCanSave: 2, StatesPaycheck: 1, StatesDeficit: 1},
		},
		Inflation: []InflationPoint{
			{Period: "2018-2023", HousingInflation: 28.4, GoodsInflation: 19.1},
		},
		StateChanges: []StateChange{
			{State: "Hawaii", MLIChange: -0.05, MLI2018: 0.89, MLI2023: 0.84},
			{State: "Maine", MLIChange: 0.0, MLI2018: 0.97, MLI2023: 0.97},
			{State: "Ohio", MLIChange: 0.025, MLI2018: 1.055, MLI2023: 1.08},
			{State: "Utah", MLIChange: 0.05, MLI2018: 1.17, MLI2023: 1.22},
		},
		CurrentSnapshot: []SnapshotEntry{
			{State: "Utah", MLI: 1.22, Status: "Surplus"},
			{State: "Hawaii", MLI: 0.84, Status: "Deficit"},
		},
		Headlines: Headlines{
			Main2018:    "Since 2018: S&P +86%, Middle Class Purchasing Power +0.4%",
			Inflation:   "Housing Costs Up 28% Since 2018, Goods Up 19%",
			StatesWorse: "1 State Became Less Affordable in Last 5 Years",
		},
	}
}

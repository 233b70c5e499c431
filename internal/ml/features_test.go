package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

// testPipeline is a small fitted state exercising imputation, the engineered
// call total, binary encoding and drop-first one-hot encoding.
func testPipeline() *FeaturePipeline {
	return &FeaturePipeline{
		Medians: map[string]float64{"MonthlyRevenue": 50},
		Modes: map[string]string{
			"RespondsToMailOffers":    "No",
			"MadeCallToRetentionTeam": "No",
			"CreditRating":            "2-High",
			"IncomeGroup":             "1",
			"Occupation":              "Other",
			"PrizmCode":               "Suburban",
		},
		Vocab: map[string][]string{
			"CreditRating": {"1-Highest", "2-High", "3-Low"},
			"IncomeGroup":  {"1"},
			"Occupation":   {"Other"},
			"PrizmCode":    {"Suburban"},
		},
		Columns: []string{
			"MonthlyRevenue",
			"TotalCalls",
			"RespondsToMailOffers",
			"CreditRating_2-High",
			"CreditRating_3-Low",
		},
		Means: map[string]float64{"MonthlyRevenue": 50},
		Stds:  map[string]float64{"MonthlyRevenue": 10},
	}
}

// fullRecord returns a record with every field populated.
func fullRecord() *ChurnRecord {
	return &ChurnRecord{
		MonthlyRevenue:            f64(60),
		MonthlyMinutes:            f64(300),
		OverageMinutes:            f64(0),
		UnansweredCalls:           f64(2),
		CustomerCareCalls:         f64(1),
		PercChangeMinutes:         f64(-10),
		PercChangeRevenues:        f64(-1.5),
		InboundCalls:              f64(3),
		OutboundCalls:             f64(5),
		ReceivedCalls:             f64(20),
		TotalRecurringCharge:      f64(45),
		CurrentEquipmentDays:      f64(400),
		DroppedBlockedCalls:       f64(1),
		MonthsInService:           f64(24),
		ActiveSubs:                f64(1),
		RespondsToMailOffers:      str("Yes"),
		RetentionCalls:            f64(0),
		RetentionOffersAccepted:   f64(0),
		MadeCallToRetentionTeam:   str("No"),
		ReferralsMadeBySubscriber: f64(0),
		CreditRating:              str("3-Low"),
		IncomeGroup:               str("1"),
		Occupation:                str("Other"),
		PrizmCode:                 str("Suburban"),
	}
}

func TestTransformAlignsToColumns(t *testing.T) {
	p := testPipeline()
	got, err := p.Transform(fullRecord())
	require.NoError(t, err)
	require.Len(t, got, len(p.Columns))

	// MonthlyRevenue 60 scaled by mean 50, std 10
	assert.InDelta(t, 1.0, got[0], 1e-9)
	// engineered TotalCalls = inbound 3 + outbound 5, no scaler entry
	assert.InDelta(t, 8.0, got[1], 1e-9)
	// "Yes" encodes to 1
	assert.InDelta(t, 1.0, got[2], 1e-9)
	// one-hot drop-first: 3-Low sets its own column only
	assert.InDelta(t, 0.0, got[3], 1e-9)
	assert.InDelta(t, 1.0, got[4], 1e-9)
}

func TestTransformIsDeterministic(t *testing.T) {
	p := testPipeline()
	a, err := p.Transform(fullRecord())
	require.NoError(t, err)
	b, err := p.Transform(fullRecord())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTransformMissingFields(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.MonthlyRevenue = nil
	rec.CreditRating = nil

	_, err := p.Transform(rec)
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "MonthlyRevenue")
	assert.Contains(t, err.Error(), "CreditRating")
}

func TestTransformImputesNaNWithMedian(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.MonthlyRevenue = f64(math.NaN())

	got, err := p.Transform(rec)
	require.NoError(t, err)
	// median 50 scaled by mean 50, std 10 -> 0
	assert.InDelta(t, 0.0, got[0], 1e-9)
}

func TestTransformEmptyCategoricalUsesMode(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.CreditRating = str("")

	got, err := p.Transform(rec)
	require.NoError(t, err)
	// mode is 2-High
	assert.InDelta(t, 1.0, got[3], 1e-9)
	assert.InDelta(t, 0.0, got[4], 1e-9)
}

func TestTransformUnknownCategoryEncodesZero(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.CreditRating = str("9-Unrated")

	got, err := p.Transform(rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[3], 1e-9)
	assert.InDelta(t, 0.0, got[4], 1e-9)
}

func TestTransformDroppedReferenceCategoryEncodesZero(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.CreditRating = str("1-Highest")

	got, err := p.Transform(rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[3], 1e-9)
	assert.InDelta(t, 0.0, got[4], 1e-9)
}

func TestTransformBinaryCaseInsensitive(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.RespondsToMailOffers = str("yes")

	got, err := p.Transform(rec)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[2], 1e-9)

	rec.RespondsToMailOffers = str("NO")
	got, err = p.Transform(rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[2], 1e-9)
}

func TestTransformBinaryRejectsOtherValues(t *testing.T) {
	p := testPipeline()
	rec := fullRecord()
	rec.RespondsToMailOffers = str("maybe")

	_, err := p.Transform(rec)
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "RespondsToMailOffers")

	rec = fullRecord()
	rec.MadeCallToRetentionTeam = str("1")
	_, err = p.Transform(rec)
	require.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "MadeCallToRetentionTeam")
}

func TestTransformZeroStdCenterOnly(t *testing.T) {
	p := testPipeline()
	p.Stds["MonthlyRevenue"] = 0

	got, err := p.Transform(fullRecord())
	require.NoError(t, err)
	// centered but not divided
	assert.InDelta(t, 10.0, got[0], 1e-9)
}

func TestValidateRejectsEmptyState(t *testing.T) {
	p := &FeaturePipeline{}
	assert.Error(t, p.Validate())

	p = testPipeline()
	p.Vocab["Occupation"] = nil
	assert.Error(t, p.Validate())

	assert.NoError(t, testPipeline().Validate())
}

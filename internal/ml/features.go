// Package ml implements the fitted feature pipeline and classifier applied
// at serving time. Both are deserialized from versioned artifacts produced
// by an offline training process; nothing in this package fits, refits or
// otherwise derives statistics from request data. Computing normalization
// statistics from a single-row request produces degenerate, unstable
// predictions, so every constant used here comes from the artifact.
package ml

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrSchema is returned when a submitted record is missing required fields
// or carries a value outside a field's accepted domain. Handlers translate
// it into an HTTP 400.
var ErrSchema = errors.New("feature schema violation")

// ChurnRecord is the fixed-schema input record for one customer. Fields are
// pointers so that absent JSON keys are distinguishable from zero values.
// The two Yes/No fields and the four low-cardinality categoricals are
// strings; everything else is numeric.
type ChurnRecord struct {
	MonthlyRevenue            *float64 `json:"MonthlyRevenue"`
	MonthlyMinutes            *float64 `json:"MonthlyMinutes"`
	OverageMinutes            *float64 `json:"OverageMinutes"`
	UnansweredCalls           *float64 `json:"UnansweredCalls"`
	CustomerCareCalls         *float64 `json:"CustomerCareCalls"`
	PercChangeMinutes         *float64 `json:"PercChangeMinutes"`
	PercChangeRevenues        *float64 `json:"PercChangeRevenues"`
	InboundCalls              *float64 `json:"InboundCalls"`
	OutboundCalls             *float64 `json:"OutboundCalls"`
	ReceivedCalls             *float64 `json:"ReceivedCalls"`
	TotalRecurringCharge      *float64 `json:"TotalRecurringCharge"`
	CurrentEquipmentDays      *float64 `json:"CurrentEquipmentDays"`
	DroppedBlockedCalls       *float64 `json:"DroppedBlockedCalls"`
	MonthsInService           *float64 `json:"MonthsInService"`
	ActiveSubs                *float64 `json:"ActiveSubs"`
	RespondsToMailOffers      *string  `json:"RespondsToMailOffers"`
	RetentionCalls            *float64 `json:"RetentionCalls"`
	RetentionOffersAccepted   *float64 `json:"RetentionOffersAccepted"`
	MadeCallToRetentionTeam   *string  `json:"MadeCallToRetentionTeam"`
	ReferralsMadeBySubscriber *float64 `json:"ReferralsMadeBySubscriber"`
	CreditRating              *string  `json:"CreditRating"`
	IncomeGroup               *string  `json:"IncomeGroup"`
	Occupation                *string  `json:"Occupation"`
	PrizmCode                 *string  `json:"PrizmCode"`
}

// FeaturePipeline holds the fitted preprocessing state: imputation medians
// and modes, the Yes/No binary fields, one-hot vocabularies (first category
// dropped), the training column order, and standard-scaler statistics.
// Transform applies this state without modification; the pipeline is pure.
type FeaturePipeline struct {
	Medians map[string]float64  `json:"medians"`      // per numeric column, for NaN imputation
	Modes   map[string]string   `json:"modes"`        // per categorical column
	Vocab   map[string][]string `json:"vocabularies"` // categories in training order
	Columns []string            `json:"columns"`      // final training column order
	Means   map[string]float64  `json:"means"`        // scaler means per column
	Stds    map[string]float64  `json:"stds"`         // scaler standard deviations per column
}

// the four one-hot encoded fields and the two binary Yes/No fields
var (
	oneHotFields = []string{"CreditRating", "IncomeGroup", "Occupation", "PrizmCode"}
	binaryFields = []string{"RespondsToMailOffers", "MadeCallToRetentionTeam"}
)

// Validate checks the pipeline state for internal consistency so a corrupt
// artifact is rejected at load time, not on the first request.
func (p *FeaturePipeline) Validate() error {
	if len(p.Columns) == 0 {
		return errors.New("feature pipeline: empty column list")
	}
	for _, f := range oneHotFields {
		if len(p.Vocab[f]) == 0 {
			return fmt.Errorf("feature pipeline: missing vocabulary for %s", f)
		}
	}
	return nil
}

// Transform maps a raw record to the numeric vector the classifier expects,
// in the fitted column order. Missing required fields and Yes/No fields
// holding any other value produce ErrSchema. Categorical values outside the
// fitted vocabulary encode as all zeros; NaN numerics are imputed with the
// fitted median. Never refits.
func (p *FeaturePipeline) Transform(rec *ChurnRecord) ([]float64, error) {
	values, err := p.named(rec)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(p.Columns))
	for i, col := range p.Columns {
		v, ok := values[col]
		if !ok {
			// column unseen in this record (e.g. dropped-at-source field):
			// align to training columns with zero fill
			v = 0
		}
		if mean, ok := p.Means[col]; ok {
			if std := p.Stds[col]; std != 0 {
				v = (v - mean) / std
			} else {
				v = v - mean
			}
		}
		out[i] = v
	}
	return out, nil
}

// named builds the engineered, imputed, encoded column->value map.
func (p *FeaturePipeline) named(rec *ChurnRecord) (map[string]float64, error) {
	var missing []string

	num := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		if math.IsNaN(*v) {
			return p.Medians[name] // fitted median, never recomputed
		}
		return *v
	}
	cat := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		if *v == "" {
			return p.Modes[name] // fitted most-frequent category
		}
		return *v
	}

	inbound := num("InboundCalls", rec.InboundCalls)
	outbound := num("OutboundCalls", rec.OutboundCalls)

	values := map[string]float64{
		// engineered: TotalCalls replaces the two raw call counts
		"TotalCalls":                inbound + outbound,
		"MonthlyRevenue":            num("MonthlyRevenue", rec.MonthlyRevenue),
		"MonthlyMinutes":            num("MonthlyMinutes", rec.MonthlyMinutes),
		"OverageMinutes":            num("OverageMinutes", rec.OverageMinutes),
		"UnansweredCalls":           num("UnansweredCalls", rec.UnansweredCalls),
		"CustomerCareCalls":         num("CustomerCareCalls", rec.CustomerCareCalls),
		"PercChangeMinutes":         num("PercChangeMinutes", rec.PercChangeMinutes),
		"PercChangeRevenues":        num("PercChangeRevenues", rec.PercChangeRevenues),
		"ReceivedCalls":             num("ReceivedCalls", rec.ReceivedCalls),
		"TotalRecurringCharge":      num("TotalRecurringCharge", rec.TotalRecurringCharge),
		"CurrentEquipmentDays":      num("CurrentEquipmentDays", rec.CurrentEquipmentDays),
		"DroppedBlockedCalls":       num("DroppedBlockedCalls", rec.DroppedBlockedCalls),
		"MonthsInService":           num("MonthsInService", rec.MonthsInService),
		"ActiveSubs":                num("ActiveSubs", rec.ActiveSubs),
		"RetentionCalls":            num("RetentionCalls", rec.RetentionCalls),
		"RetentionOffersAccepted":   num("RetentionOffersAccepted", rec.RetentionOffersAccepted),
		"ReferralsMadeBySubscriber": num("ReferralsMadeBySubscriber", rec.ReferralsMadeBySubscriber),
	}

	// binary fields accept exactly Yes or No (case-insensitive); any other
	// value is a schema violation, not a silent zero
	binary := map[string]*string{
		"RespondsToMailOffers":    rec.RespondsToMailOffers,
		"MadeCallToRetentionTeam": rec.MadeCallToRetentionTeam,
	}
	var invalid []string
	for _, name := range binaryFields {
		v := cat(name, binary[name])
		switch {
		case strings.EqualFold(v, "Yes"):
			values[name] = 1
		case strings.EqualFold(v, "No"):
			values[name] = 0
		case v == "":
			// nil field, already recorded as missing above
		default:
			invalid = append(invalid, name)
		}
	}

	// one-hot with drop-first: the first fitted category encodes as all
	// zeros, as does any category outside the fitted vocabulary
	oneHot := map[string]*string{
		"CreditRating": rec.CreditRating,
		"IncomeGroup":  rec.IncomeGroup,
		"Occupation":   rec.Occupation,
		"PrizmCode":    rec.PrizmCode,
	}
	for _, name := range oneHotFields {
		v := cat(name, oneHot[name])
		vocab := p.Vocab[name]
		for i, category := range vocab {
			if i == 0 {
				continue // dropped reference category
			}
			col := name + "_" + category
			if v == category {
				values[col] = 1
			} else {
				values[col] = 0
			}
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields: %s", ErrSchema, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: fields must be Yes or No: %s", ErrSchema, strings.Join(invalid, ", "))
	}
	return values, nil
}

// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"github.com/tomtom215/authwatch/internal/aggregator"
	"github.com/tomtom215/authwatch/internal/baseline"
)

// Features maps a metrics record onto the baseline feature vector.
// Inter-arrival time is converted to seconds.
func Features(m *aggregator.MetricsRecord) baseline.Vector {
	return baseline.Vector{
		m.RequestsPerMinute,
		m.ErrorRatio,
		m.AvgInterArrivalMs / 1000,
		float64(m.TotalRequests),
	}
}

// TrainingSet converts every record into a feature vector.
func TrainingSet(records []aggregator.MetricsRecord) []baseline.Vector {
	out := make([]baseline.Vector, len(records))
	for i := range records {
		out[i] = Features(&records[i])
	}
	return out
}

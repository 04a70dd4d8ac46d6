// Package domain implements the climate risk-probability engine.
//
// # Data Source
//
// Input is a 12-month climatology for one coordinate: multi-decade monthly
// averages of daily maximum and minimum 2 m temperature (°C), corrected
// precipitation (mm/day), 2 m wind speed (m/s), relative humidity (%) and dew
// point (°C). The production collaborator reads these from the NASA POWER
// climatology point API (parameters T2M_MAX, T2M_MIN, PRECTOTCORR, WS2M, RH2M,
// T2MDEW). A month the provider could not supply is a nil slot in
// [ClimatologySeries]; it is never an error on its own.
//
// # Pipeline
//
// One request runs the stages below exactly once, in order. Every stage is a
// pure function of its inputs:
//
//	ComputeStatistics      series + month          → StatisticalContext
//	ResolveTemporalContext target year + now       → TemporalContext
//	Estimator.Estimate     ×3 per RiskCategory     → EstimatorResult
//	CombineEnsemble        per RiskCategory        → EnsembleResult
//	ScoreAccuracy          all of the above        → AccuracyMetrics
//	AssembleAssessment     all of the above        → Assessment
//
// The narrative stage ([Narrate]) is the only one that talks to the outside
// world, and it always returns: a failing [Narrator] is replaced by
// [FallbackNarrative].
//
// # Risk Categories
//
// Each category is bound to a source variable and a threshold percentile p*:
//
//	extreme_heat         temperature_max   90th, upper tail
//	extreme_cold         temperature_min   10th, lower tail
//	heavy_precipitation  precipitation     80th, upper tail
//	strong_winds         wind_speed        85th, upper tail
//	heat_discomfort      discomfort_index  85th, upper tail
//
// discomfort_index is derived per month as temperature_max + 0.1 × relative
// humidity, the composite used by the original risk dashboard.
//
// # Estimators
//
// Three deterministic estimators run per category:
//
//	percentile_threshold  linear response around p*: 50 + (rank − p*)·k,
//	                      k = 50/(100−p*) (upper) or 50/p* (lower).
//	feature_weighted      logistic over primary and secondary z-scores plus the
//	                      era and cycle terms of the temporal context.
//	physics_heuristic     percentile response applied to an apparent value
//	                      (heat index, wind chill, humidex, moisture-loaded rain,
//	                      gust proxy) against its own normal approximation.
//
// # Temporal Heuristics
//
// The warming adjustment of 0.05 °C per year after 2020 and the sinusoidal
// 100-year cycle are deterministic heuristics for presentation. They are not a
// climate projection.
//
// # Confidence
//
// Uncertainty level is a pure function of overall confidence:
//
//	overall ≥ 80  low
//	overall ≥ 60  moderate
//	otherwise     high
//
// A series with no variation in any variable is degenerate: every probability
// is 50 and the level is forced to high.
package domain

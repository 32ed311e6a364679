package analysis

import "velo/internal/strava"

// EstimateTSS derives a training stress score for one activity. Power data
// gives the classic NP/FTP formulation; without power, Strava's relative
// effort (suffer score) is already on a comparable scale and is used
// directly. Activities with neither contribute zero load.
func EstimateTSS(a strava.Activity, ftpWatts float64) float64 {
	np := a.WeightedAverageWatts
	if np == 0 {
		np = a.AverageWatts
	}

	if np > 0 && ftpWatts > 0 {
		// TSS = (seconds * NP * IF) / (FTP * 3600) * 100, IF = NP/FTP.
		intensity := np / ftpWatts
		return float64(a.MovingTime) * np * intensity / (ftpWatts * 3600) * 100
	}

	return a.SufferScore
}

// DailyLoads aggregates activities into one summed load per local calendar
// day, ready for the PMC scan.
func DailyLoads(activities []strava.Activity, ftpWatts float64) map[string]float64 {
	loads := make(map[string]float64)
	for _, a := range activities {
		tss := EstimateTSS(a, ftpWatts)
		if tss <= 0 {
			continue
		}
		loads[a.StartDateLocal.Format(dayFormat)] += tss
	}
	return loads
}

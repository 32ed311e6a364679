package state

// Distance logging advances every wear counter on the bike at once: chain,
// tires, pads and the service interval all age with distance ridden no
// matter which component prompted the ride. Only resets are scoped to a
// single component.

// LogDistance atomically adds km to the bike's total distance, the active
// wheelset's mileage and lube counter, and all five maintenance odometers.
// No other bike is touched.
func (s *Store) LogDistance(index int, km float64) error {
	if km <= 0 {
		return ErrInvalidDistance
	}
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]

		b.TotalDistanceKm += km

		ws := &b.Wheelsets[b.ActiveWheelsetIndex]
		ws.DistanceKm += km
		ws.SinceLastLubeKm += km

		m := &b.Maintenance
		m.ChainLubeKm += km
		m.ChainWearKm += km
		m.TiresKm += km
		m.BrakePadsKm += km
		m.ServiceIntervalKm += km

		return nil
	})
}

// ResetMaintenance zeroes exactly one maintenance odometer on the bike at
// index, leaving the other four and all distance totals untouched. A chain
// lube reset also clears the active wheelset's since-lube counter, which
// tracks the same service.
func (s *Store) ResetMaintenance(index int, component MaintenanceComponent) error {
	return s.mutate(func(d *Document) error {
		if index < 0 || index >= len(d.Bikes) {
			return ErrBikeIndex
		}
		b := &d.Bikes[index]

		counter := b.Maintenance.Counter(component)
		if counter == nil {
			return ErrUnknownComponent
		}
		*counter = 0

		if component == ComponentChainLube {
			b.Wheelsets[b.ActiveWheelsetIndex].SinceLastLubeKm = 0
		}
		return nil
	})
}

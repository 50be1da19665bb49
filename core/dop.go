package core

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/logging"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// minDOPSatellites is the smallest constellation that admits a position
// solution; below it DOP is undefined.
const minDOPSatellites = 4

// ObserverDOPSeries is the DOP time series for one ground observer.
type ObserverDOPSeries struct {
	Observer model.Observer
	Samples  []model.DOPSample
}

// DOPEngine samples constellation geometry quality over a time window for a
// set of ground observers, and derives per-satellite ground-track envelopes
// from the same propagated positions.
type DOPEngine struct {
	cfg     config.DOP
	workers int
	log     logging.Logger
}

// NewDOPEngine constructs an engine. workers bounds the parallel epoch
// propagation; values below 1 run sequentially.
func NewDOPEngine(cfg config.DOP, workers int, log logging.Logger) *DOPEngine {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logging.Noop()
	}
	return &DOPEngine{cfg: cfg, workers: workers, log: log}
}

// epochPositions is every usable satellite position at one sampled epoch.
type epochPositions struct {
	epoch     time.Time
	positions map[string]Vec3
}

// Evaluate samples DOP at the configured cadence over the configured horizon
// starting at ref, for every configured observer, using the freshest element
// record at or before each sampled epoch. Satellites on the inactive list
// are excluded from visibility; satellites whose propagation fails at an
// epoch are simply absent from that epoch's geometry.
func (e *DOPEngine) Evaluate(ctx context.Context, series map[string]*model.ElementSeries, ref time.Time) ([]ObserverDOPSeries, []model.GroundTrackBox) {
	epochs := e.sampleEpochs(ref)
	grid := e.propagateGrid(ctx, series, epochs)

	out := make([]ObserverDOPSeries, 0, len(e.cfg.Observers))
	for _, spec := range e.cfg.ObserverList() {
		obs := NewObserverECEF(spec.LatDeg, spec.LonDeg, spec.AltM)
		samples := make([]model.DOPSample, 0, len(grid))
		for _, ep := range grid {
			samples = append(samples, e.sampleAt(ctx, spec, obs, ep))
		}
		out = append(out, ObserverDOPSeries{Observer: spec, Samples: samples})
	}

	return out, groundTracks(grid)
}

func (e *DOPEngine) sampleEpochs(ref time.Time) []time.Time {
	step := e.cfg.Step()
	horizon := e.cfg.Horizon()
	var epochs []time.Time
	for t := ref; !t.After(ref.Add(horizon)); t = t.Add(step) {
		epochs = append(epochs, t)
	}
	return epochs
}

// propagateGrid computes every satellite's position at every sampled epoch.
// Epochs are independent, so the work is spread over a bounded set of
// goroutines; a cancelled context abandons remaining epochs.
func (e *DOPEngine) propagateGrid(ctx context.Context, series map[string]*model.ElementSeries, epochs []time.Time) []epochPositions {
	grid := make([]epochPositions, len(epochs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i, epoch := range epochs {
		select {
		case <-ctx.Done():
			// Drain in-flight epochs before handing the backing array back.
			wg.Wait()
			return grid[:0]
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, epoch time.Time) {
			defer wg.Done()
			defer func() { <-sem }()

			// Each goroutine gets its own propagator: SGP4 model caches are
			// not synchronized.
			prop := NewPropagator()
			positions := make(map[string]Vec3, len(series))
			for id, s := range series {
				rec, ok := s.At(epoch)
				if !ok {
					continue
				}
				pos, err := prop.ECEF(rec, epoch)
				if err != nil {
					e.log.Debug(ctx, "propagation failed",
						logging.String("satellite_id", id),
						logging.String("error", err.Error()))
					continue
				}
				positions[id] = pos
			}
			grid[i] = epochPositions{epoch: epoch, positions: positions}
		}(i, epoch)
	}
	wg.Wait()
	return grid
}

// sampleAt builds one DOP sample for an observer at one epoch. Fewer than
// four visible satellites, or a near-singular geometry matrix, yields an
// explicitly undefined sample rather than NaN or infinity.
func (e *DOPEngine) sampleAt(ctx context.Context, spec model.Observer, obs ObserverECEF, ep epochPositions) model.DOPSample {
	sample := model.DOPSample{Epoch: ep.epoch, Observer: spec}

	ids := make([]string, 0, len(ep.positions))
	for id := range ep.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if e.cfg.IsInactive(id) {
			continue
		}
		look := obs.LookAnglesTo(ep.positions[id])
		view := model.SatelliteView{
			SatelliteID:  id,
			AzimuthDeg:   look.AzimuthDeg,
			ElevationDeg: look.ElevationDeg,
			RangeKm:      look.RangeKm,
			Visible:      look.ElevationDeg > e.cfg.ElevationMaskDeg,
		}
		sample.Views = append(sample.Views, view)
		if view.Visible {
			sample.VisibleCount++
		}
	}

	if sample.VisibleCount < minDOPSatellites {
		return sample
	}

	gdop, pdop, hdop, vdop, tdop, err := solveDOP(sample.Views)
	if err != nil {
		var sg *SingularGeometryError
		if errors.As(err, &sg) {
			sg.Observer = spec.Name
		}
		e.log.Debug(ctx, "dop geometry unsolvable",
			logging.String("observer", spec.Name),
			logging.String("error", err.Error()))
		return sample
	}

	sample.Defined = true
	sample.GDOP = gdop
	sample.PDOP = pdop
	sample.HDOP = hdop
	sample.VDOP = vdop
	sample.TDOP = tdop
	sample.Quality = ClassifyDOP(gdop)
	return sample
}

// solveDOP forms the geometry matrix from the visible satellites' unit
// line-of-sight vectors (east, north, up, plus the clock-bias column),
// inverts GtG, and reads the DOP scalars off its diagonal. Returns
// *SingularGeometryError when the inversion fails or yields a non-positive
// diagonal.
func solveDOP(views []model.SatelliteView) (gdop, pdop, hdop, vdop, tdop float64, err error) {
	var gtg [4][4]float64
	rows := 0
	for _, v := range views {
		if !v.Visible {
			continue
		}
		az := v.AzimuthDeg * math.Pi / 180.0
		el := v.ElevationDeg * math.Pi / 180.0
		row := [4]float64{
			-math.Sin(az) * math.Cos(el), // east
			math.Cos(az) * math.Cos(el),  // north
			math.Sin(el),                 // up
			1,                            // clock bias
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				gtg[i][j] += row[i] * row[j]
			}
		}
		rows++
	}
	if rows < minDOPSatellites {
		return 0, 0, 0, 0, 0, &SingularGeometryError{Reason: "fewer than 4 visible satellites"}
	}

	cov, ok := invert4(gtg)
	if !ok {
		return 0, 0, 0, 0, 0, &SingularGeometryError{Reason: "geometry matrix not invertible"}
	}
	for i := 0; i < 4; i++ {
		if cov[i][i] <= 0 || math.IsNaN(cov[i][i]) || math.IsInf(cov[i][i], 0) {
			return 0, 0, 0, 0, 0, &SingularGeometryError{Reason: "non-positive covariance diagonal"}
		}
	}

	gdop = math.Sqrt(cov[0][0] + cov[1][1] + cov[2][2] + cov[3][3])
	pdop = math.Sqrt(cov[0][0] + cov[1][1] + cov[2][2])
	hdop = math.Sqrt(cov[0][0] + cov[1][1])
	vdop = math.Sqrt(cov[2][2])
	tdop = math.Sqrt(cov[3][3])
	return gdop, pdop, hdop, vdop, tdop, nil
}

// invert4 inverts a 4x4 matrix by Gauss-Jordan elimination with partial
// pivoting. ok is false when a pivot collapses (singular or near-singular).
func invert4(m [4][4]float64) ([4][4]float64, bool) {
	var aug [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			aug[i][j] = m[i][j]
		}
		aug[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-10 {
			return [4][4]float64{}, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		p := aug[col][col]
		for j := 0; j < 8; j++ {
			aug[col][j] /= p
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := aug[r][col]
			for j := 0; j < 8; j++ {
				aug[r][j] -= f * aug[col][j]
			}
		}
	}

	var inv [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] = aug[i][4+j]
		}
	}
	return inv, true
}

// ClassifyDOP is the standard GDOP quality lookup.
func ClassifyDOP(gdop float64) model.DOPQuality {
	switch {
	case gdop < 2:
		return model.DOPExcellent
	case gdop < 4:
		return model.DOPGood
	case gdop < 6:
		return model.DOPModerate
	case gdop < 8:
		return model.DOPFair
	default:
		return model.DOPPoor
	}
}

// groundTracks reduces the propagated grid to per-satellite lat-lon
// envelopes of the subsatellite points.
func groundTracks(grid []epochPositions) []model.GroundTrackBox {
	type acc struct {
		box    model.GroundTrackBox
		sumLat float64
		sumLon float64
	}
	byID := make(map[string]*acc)

	for _, ep := range grid {
		for id, pos := range ep.positions {
			lat, lon := ECEFToGeodetic(pos)
			a, ok := byID[id]
			if !ok {
				a = &acc{box: model.GroundTrackBox{
					SatelliteID: id,
					MinLatDeg:   lat, MaxLatDeg: lat,
					MinLonDeg: lon, MaxLonDeg: lon,
				}}
				byID[id] = a
			}
			a.box.MinLatDeg = math.Min(a.box.MinLatDeg, lat)
			a.box.MaxLatDeg = math.Max(a.box.MaxLatDeg, lat)
			a.box.MinLonDeg = math.Min(a.box.MinLonDeg, lon)
			a.box.MaxLonDeg = math.Max(a.box.MaxLonDeg, lon)
			a.sumLat += lat
			a.sumLon += lon
			a.box.SampleCount++
		}
	}

	out := make([]model.GroundTrackBox, 0, len(byID))
	for _, a := range byID {
		a.box.MeanLatDeg = a.sumLat / float64(a.box.SampleCount)
		a.box.MeanLonDeg = a.sumLon / float64(a.box.SampleCount)
		out = append(out, a.box)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SatelliteID < out[j].SatelliteID })
	return out
}

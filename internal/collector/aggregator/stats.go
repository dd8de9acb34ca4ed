package aggregator

import "math"

// series accumulates a stream of values for mean, population std, min and max.
type series struct {
	count int
	sum   float64
	sumSq float64
	min   float64
	max   float64
}

func (s *series) add(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v
	s.sumSq += v * v
}

func (s *series) mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *series) std() float64 {
	if s.count == 0 {
		return 0
	}
	m := s.mean()
	v := s.sumSq/float64(s.count) - m*m
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

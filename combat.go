package main

import (
	"sort"

	"github.com/google/uuid"
)

// HitResult names the target of a resolved shot and the distance at which
// it connected.
type HitResult struct {
	TargetID  uuid.UUID
	DistanceM float64
}

// ResolveHit determines whether a shot connects. Candidates are every
// roster entry except the shooter, optionally restricted to an explicit
// target, which is still subject to the range and lock-on checks. Among
// surviving candidates the nearest wins; exact distance ties fall to the
// lower player ID so resolution is deterministic regardless of roster
// iteration order. Pure: resolving a hit mutates nothing.
func ResolveHit(shooter PlayerState, roster []PlayerState, heading, rangeM float64, targetID *uuid.UUID) *HitResult {
	candidates := make([]HitResult, 0, len(roster))
	for _, player := range roster {
		if player.ID == shooter.ID {
			continue
		}
		if targetID != nil && player.ID != *targetID {
			continue
		}
		distance := HaversineM(shooter.Lat, shooter.Lon, player.Lat, player.Lon)
		if distance > rangeM {
			continue
		}
		bearing := BearingDeg(shooter.Lat, shooter.Lon, player.Lat, player.Lon)
		if HeadingDelta(heading, bearing) > LockAngleDeg {
			continue
		}
		candidates = append(candidates, HitResult{TargetID: player.ID, DistanceM: distance})
	}

	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceM != candidates[j].DistanceM {
			return candidates[i].DistanceM < candidates[j].DistanceM
		}
		return candidates[i].TargetID.String() < candidates[j].TargetID.String()
	})
	return &candidates[0]
}

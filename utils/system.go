package utils

import (
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sirupsen/logrus"
)

const (
	minAutoWorkers = 2
	maxAutoWorkers = 32
	// workersPerCore is high since workers mostly wait on store responses.
	workersPerCore = 4
)

// GetOptimalWorkerCount determines how many stores or detail pages are fetched at once.
// configValue is either a positive number or "auto".
func GetOptimalWorkerCount(configValue string) int {
	if manualWorkers, err := strconv.Atoi(configValue); err == nil && manualWorkers > 0 {
		logrus.Debugf("Using %d configured workers", manualWorkers)
		return manualWorkers
	}
	if configValue != "auto" {
		logrus.Warnf("Invalid workers value %q, using auto", configValue)
	}

	cores, err := cpu.Counts(true)
	if err != nil {
		logrus.WithError(err).Warnf("Could not count CPU cores, using %d workers", minAutoWorkers)
		return minAutoWorkers
	}
	n := workersForCores(cores)
	logrus.Debugf("%d logical cores, using %d workers", cores, n)
	return n
}

func workersForCores(cores int) int {
	return min(max(cores*workersPerCore, minAutoWorkers), maxAutoWorkers)
}

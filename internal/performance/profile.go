package performance

import "github.com/user/seo-audit-service/internal/entity"

// Profile is the emulation and throttling setup of one Lighthouse run.
// Values are fixed so repeated runs are comparable.
type Profile struct {
	Strategy          entity.Strategy
	Mobile            bool
	ScreenWidth       int
	ScreenHeight      int
	DeviceScaleFactor float64
	RTTMs             float64
	ThroughputKbps    float64
	CPUSlowdown       float64
}

var (
	DesktopProfile = Profile{
		Strategy:          entity.StrategyDesktop,
		ScreenWidth:       1350,
		ScreenHeight:      940,
		DeviceScaleFactor: 1,
		RTTMs:             40,
		ThroughputKbps:    10240,
		CPUSlowdown:       1,
	}

	MobileProfile = Profile{
		Strategy:          entity.StrategyMobile,
		Mobile:            true,
		ScreenWidth:       412,
		ScreenHeight:      823,
		DeviceScaleFactor: 1.75,
		RTTMs:             150,
		ThroughputKbps:    1638.4,
		CPUSlowdown:       4,
	}
)

// Categories collected from every run.
var Categories = []string{"performance", "accessibility", "best-practices", "seo", "pwa"}

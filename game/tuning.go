package game

// Scale and growth
const (
	MinScale    = 1.0
	MaxScale    = 6.0
	GrowthRate  = 0.015 // divided by TargetScale*1.5, so growth slows as the snake gets bigger
	ScaleEase   = 0.1
	SpeedEase   = 0.1
	HeadLift    = 2.0 // y offset per unit of scale
	HeadRadius  = 2.2
	BodyRadius  = 2.0
	TaperStart  = 0.8
	TaperSlope  = 5 * 0.6
	MinTaper    = 0.4
	GapFactor   = 0.7
	HistoryKeep = 50 // extra history samples kept past the last segment
)

// Boost
const (
	BoostDrain      = 0.3
	BoostShrink     = 0.003
	BoostFloorScore = 0.5
	PlayerTurn      = 0.18
	PlayerBoostTurn = 0.1
)

// AI archetypes
const (
	SmartAIChance     = 0.3
	SmartTurn         = 0.12
	WanderTurn        = 0.06
	SmartAvoidance    = 1.0
	WanderAvoidance   = 0.4
	FoodSearchRadius  = 500.0
	PreyMargin        = 0.95
	PreyReach         = 1.5
	TargetPull        = 2.5
	WanderTick        = 0.1
	WanderSpread      = 3.0 // full width, so +-1.5 rad
	WanderTimerMin    = 10.0
	WanderTimerRange  = 30.0
	EdgeMargin        = 30.0
	CenterPull        = 1.5
	LookaheadBase     = 35.0
	SmartRepel        = 8.0
	WanderRepel       = 1.5
	ContainBlend      = 0.5
	SpawnSpread       = 0.8
	PlayerBodyCount   = 10
	SmartAIBodyCount  = 12
	WanderAIBodyCount = 5
)

// Food and combat
const (
	EatRadius       = 6.0
	FoodScore       = 10.0
	FoodValue       = 1.0
	DropValue       = 3.0
	DropJitter      = 5.0 // full width, so +-2.5 units
	FoodHeight      = 2.0
	BodyHitFactor   = 0.8
	HeadHitFactor   = 0.9
	PlayerDominance = 1.5
	AIDominance     = 0.95
)

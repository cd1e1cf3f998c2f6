package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tokenlens/burnwatch/api"
	"github.com/tokenlens/burnwatch/internal/common"
	"github.com/tokenlens/burnwatch/internal/registry"
	"github.com/tokenlens/burnwatch/internal/service"
	"github.com/tokenlens/burnwatch/internal/storage"
)

var (
	burnService   *service.Service
	jobStorage    storage.IJobStore
	tokenRegistry *registry.Registry
)

// Init wires the handler package's collaborators. Must be called before
// the router starts serving.
func Init(svc *service.Service, jobs storage.IJobStore, reg *registry.Registry) {
	burnService = svc
	jobStorage = jobs
	tokenRegistry = reg
}

// BurnProfileModel is the wire form of a token's burn profile.
type BurnProfileModel struct {
	ContractAddress    string  `json:"contractAddress"`
	ChainID            uint64  `json:"chainId"`
	Decimals           uint8   `json:"decimals"`
	Burn5Min           float64 `json:"burn5min"`
	Burn15Min          float64 `json:"burn15min"`
	Burn30Min          float64 `json:"burn30min"`
	Burn1H             float64 `json:"burn1h"`
	Burn3H             float64 `json:"burn3h"`
	Burn6H             float64 `json:"burn6h"`
	Burn12H            float64 `json:"burn12h"`
	Burn24H            float64 `json:"burn24h"`
	LastProcessedBlock uint64  `json:"lastProcessedBlock"`
	LastUpdated        string  `json:"lastUpdated,omitempty"`
	ComputationTimeMs  int64   `json:"computationTimeMs"`
}

// GetBurnMetrics serves GET /v1/tokens/:tokenId/burn-metrics. The token id
// is a registry symbol or a 0x contract address.
func GetBurnMetrics(c *gin.Context) {
	tokenID := c.Param("tokenId")

	profile, err := burnService.GetBurnData(c.Request.Context(), tokenID)
	if err != nil {
		if errors.Is(err, common.ErrTokenNotRecognized) {
			api.NotFoundErrorHandler(c, err)
			return
		}
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			api.BadGatewayErrorHandler(c, err)
			return
		}
		log.Error().Err(err).Str("token", tokenID).Msg("Error getting burn data")
		api.InternalErrorHandler(c)
		return
	}

	c.JSON(200, serializeProfile(profile))
}

func serializeProfile(profile *common.TokenBurnProfile) BurnProfileModel {
	model := BurnProfileModel{
		ContractAddress:    profile.ContractAddress,
		ChainID:            profile.ChainID,
		Decimals:           profile.Decimals,
		Burn5Min:           profile.Windows[common.Window5Min],
		Burn15Min:          profile.Windows[common.Window15Min],
		Burn30Min:          profile.Windows[common.Window30Min],
		Burn1H:             profile.Windows[common.Window1H],
		Burn3H:             profile.Windows[common.Window3H],
		Burn6H:             profile.Windows[common.Window6H],
		Burn12H:            profile.Windows[common.Window12H],
		Burn24H:            profile.Windows[common.Window24H],
		LastProcessedBlock: profile.LastProcessedBlock,
		ComputationTimeMs:  profile.ComputationTimeMs,
	}
	if !profile.LastUpdated.IsZero() {
		model.LastUpdated = profile.LastUpdated.UTC().Format(time.RFC3339)
	}
	return model
}

package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

// TransferEventSignature is the ERC20 Transfer(address,address,uint256)
// topic every burn log query filters on.
var TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// decimalsSelector is the 4-byte selector of decimals().
var decimalsSelector = crypto.Keccak256([]byte("decimals()"))[:4]

// TransferAmount is one matched transfer log, reduced to what the burn
// calculator needs.
type TransferAmount struct {
	Amount      *big.Int
	BlockNumber uint64
}

// IChainReader is the capability boundary around the blockchain RPC. All
// implementations must be safe for concurrent use.
type IChainReader interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error)
	LogsInRange(ctx context.Context, contractAddress string, eventSignature gethCommon.Hash, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]TransferAmount, error)
	TokenDecimals(ctx context.Context, contractAddress string) (uint8, error)
	Close()
}

type Client struct {
	rpcClient *gethRpc.Client
	ethClient *ethclient.Client
	retrier   *Retrier
	chainID   *big.Int
	url       string
}

func Initialize() (IChainReader, error) {
	rpcUrl := config.Cfg.RPC.URL
	if rpcUrl == "" {
		return nil, fmt.Errorf("RPC_URL environment variable is not set")
	}
	log.Debug().Msg("Initializing RPC")
	rpcClient, dialErr := gethRpc.Dial(rpcUrl)
	if dialErr != nil {
		return nil, dialErr
	}

	ethClient := ethclient.NewClient(rpcClient)

	client := &Client{
		rpcClient: rpcClient,
		ethClient: ethClient,
		retrier:   NewRetrier(&config.Cfg.RPC),
		url:       rpcUrl,
	}

	if err := client.setChainID(context.Background()); err != nil {
		return nil, err
	}
	return IChainReader(client), nil
}

func (c *Client) setChainID(ctx context.Context) error {
	chainID, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %v", err)
	}
	c.chainID = chainID
	config.Cfg.RPC.ChainID = chainID.String()
	return nil
}

func (c *Client) GetChainID() *big.Int {
	return c.chainID
}

func (c *Client) GetURL() string {
	return c.url
}

func (c *Client) Close() {
	c.rpcClient.Close()
	c.ethClient.Close()
}

func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.retrier.Do(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		height, err = c.ethClient.BlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return height, nil
}

func (c *Client) BlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error) {
	var timestamp int64
	err := c.retrier.Do(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
		if err != nil {
			return err
		}
		if header == nil {
			return ethereum.NotFound
		}
		timestamp = int64(header.Time)
		return nil
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return 0, fmt.Errorf("block %d: %w", blockNumber, common.ErrBlockNotFound)
		}
		return 0, err
	}
	return timestamp, nil
}

func (c *Client) LogsInRange(ctx context.Context, contractAddress string, eventSignature gethCommon.Hash, toTopic gethCommon.Hash, fromBlock, toBlock uint64) ([]TransferAmount, error) {
	if fromBlock > toBlock {
		return nil, fmt.Errorf("from %d > to %d: %w", fromBlock, toBlock, common.ErrInvalidRange)
	}

	// Providers cannot reliably OR multiple fixed topics in one filter, so
	// callers issue one query per recipient topic.
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []gethCommon.Address{gethCommon.HexToAddress(contractAddress)},
		Topics: [][]gethCommon.Hash{
			{eventSignature},
			nil,
			{toTopic},
		},
	}

	var transfers []TransferAmount
	err := c.retrier.Do(ctx, "eth_getLogs", func(ctx context.Context) error {
		logs, err := c.ethClient.FilterLogs(ctx, query)
		if err != nil {
			return err
		}
		transfers = make([]TransferAmount, 0, len(logs))
		for _, l := range logs {
			transfers = append(transfers, TransferAmount{
				Amount:      new(big.Int).SetBytes(l.Data),
				BlockNumber: l.BlockNumber,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

func (c *Client) TokenDecimals(ctx context.Context, contractAddress string) (uint8, error) {
	contract := gethCommon.HexToAddress(contractAddress)
	msg := ethereum.CallMsg{
		To:   &contract,
		Data: decimalsSelector,
	}

	var result []byte
	err := c.retrier.Do(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		result, err = c.ethClient.CallContract(ctx, msg, nil)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("decimals() returned no data for %s", contractAddress)
	}
	return uint8(new(big.Int).SetBytes(result).Uint64()), nil
}

// AddressTopic right-aligns an address into the 32-byte topic form used for
// indexed address parameters.
func AddressTopic(address string) gethCommon.Hash {
	return gethCommon.BytesToHash(gethCommon.HexToAddress(address).Bytes())
}

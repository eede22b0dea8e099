package rpc // import "github.com/joincivil/content-moderation-adapter/pkg/transport/rpc"

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	addTransactionMethodName = "addTransaction"
	newTransactionEventName  = "NewTransaction"

	consensusMainContractName = "ConsensusMain"
)

// consensusABIStr is the subset of the consensus main contract used to submit
// transactions and find their ids
const consensusABIStr = `[
	{
		"type": "function",
		"name": "addTransaction",
		"stateMutability": "payable",
		"inputs": [
			{"name": "_sender", "type": "address"},
			{"name": "_recipient", "type": "address"},
			{"name": "_numOfInitialValidators", "type": "uint256"},
			{"name": "_maxRotations", "type": "uint256"},
			{"name": "_txData", "type": "bytes"}
		],
		"outputs": []
	},
	{
		"type": "event",
		"name": "NewTransaction",
		"anonymous": false,
		"inputs": [
			{"name": "txId", "type": "bytes32", "indexed": true},
			{"name": "recipient", "type": "address", "indexed": true},
			{"name": "activator", "type": "address", "indexed": true}
		]
	}
]`

// ConsensusABI returns the parsed consensus contract ABI
func ConsensusABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(consensusABIStr))
}

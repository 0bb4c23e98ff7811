package chain

const (
	// Standard ERC-20 surface we touch on the stablecoin:
	// allowance(owner,spender), approve(spender,value), balanceOf(account)
	erc20ABI = `[
		{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
		{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
	]`

	// Escrow contract: funding entry point plus the event the verify worker
	// matches receipts against.
	escrowABI = `[
		{"inputs":[{"name":"dareId","type":"uint256"},{"name":"targetAddress","type":"address"},{"name":"referrerAddress","type":"address"},{"name":"amount","type":"uint256"}],"name":"fundBounty","outputs":[],"stateMutability":"nonpayable","type":"function"},
		{"anonymous":false,"inputs":[
			{"indexed":true,"name":"dareId","type":"uint256"},
			{"indexed":true,"name":"funder","type":"address"},
			{"indexed":false,"name":"amount","type":"uint256"}
		],"name":"BountyFunded","type":"event"}
	]`
)

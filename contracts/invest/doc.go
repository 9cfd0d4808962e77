/*
Package invest implements SecretInvest contract which accepts GAS deposits and
pays out daily dividends to investors.

Investors deposit GAS by transferring it to the contract. Every
DividendsTime period the investor is entitled to a share of its balance
defined by the current level. Level grows with the total value locked (TVL)
in the contract, so the more GAS is deposited the higher dividends are paid
to everyone. Dividends are paid out either by an explicit ClaimDividends call
(or a zero GAS transfer) or automatically before the next deposit. Partial
periods are not paid: any payout resets the accrual checkpoint of the
investor.

Every deposit sends 5% of its amount to each of two marketing accounts set on
deploy. The contract is deployed stopped and starts accepting deposits after
the owner (deployer) calls Start.

# Contract notifications

NewInvestor notification. This notification is produced on the first deposit
of an account.

	NewInvestor:
	  - name: investor
	    type: Hash160
	  - name: amount
	    type: Integer

NewDeposit notification. This notification is produced on every deposit.

	NewDeposit:
	  - name: investor
	    type: Hash160
	  - name: amount
	    type: Integer

PayOffDividends notification. This notification is produced when dividends
are paid to the investor.

	PayOffDividends:
	  - name: investor
	    type: Hash160
	  - name: amount
	    type: Integer

Contract storage model.

# Summary
Key-value storage format:
 - 'owner' -> interop.Hash160
   deployer of the contract allowed to start and update it
 - 'marketingMain' -> interop.Hash160
   main marketing account
 - 'marketingReserve' -> interop.Hash160
   reserve marketing account
 - 'started' -> bool
   presence means the contract accepts deposits
 - 'tvl' -> int
   total value locked, sum of all investor balances
 - 'investors' -> int
   number of accounts that have ever deposited
 - 'dividends' -> int
   total amount of dividends paid out
 - 'lastPayment' -> int
   time of the latest dividends payout
 - 'i' + interop.Hash160 -> std.Serialize(Investor)
   investor balance and accrual checkpoint
*/
package invest

// Package queue holds pending jobs in three priority tiers with strict FIFO
// order inside a tier and strict tier precedence at each selection decision.
package queue

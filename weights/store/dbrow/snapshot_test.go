package dbrow_test

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/repweights/weights"
	"github.com/screwyprof/repweights/weights/store/dbrow"
)

func TestBigInt(t *testing.T) {
	t.Parallel()

	t.Run("it expands positive exponents", func(t *testing.T) {
		t.Parallel()

		// pgx decodes 37999100000000000000000000000000000000 as 379991e32
		n := pgtype.Numeric{Int: big.NewInt(379991), Exp: 32, Valid: true}

		v, err := dbrow.BigInt(n)

		require.NoError(t, err)
		assert.Equal(t, "37999100000000000000000000000000000000", v.String())
	})

	t.Run("it accepts negative exponents without a fractional part", func(t *testing.T) {
		t.Parallel()

		n := pgtype.Numeric{Int: big.NewInt(1500), Exp: -2, Valid: true}

		v, err := dbrow.BigInt(n)

		require.NoError(t, err)
		assert.Equal(t, "15", v.String())
	})

	t.Run("it rejects fractions and non-finite values", func(t *testing.T) {
		t.Parallel()

		_, err := dbrow.BigInt(pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true})
		assert.Error(t, err)

		_, err = dbrow.BigInt(pgtype.Numeric{NaN: true, Valid: true})
		assert.Error(t, err)

		_, err = dbrow.BigInt(pgtype.Numeric{})
		assert.Error(t, err)
	})
}

func TestEntriesToRows(t *testing.T) {
	t.Parallel()

	// Arrange
	weight, _ := new(big.Int).SetString("1009399201843717416503167458269866895", 10)
	reps := []weights.Representative{
		{Account: "nano_a", Weight: weight},
		{Account: "nano_b", Weight: big.NewInt(7)},
	}

	// Act
	rows := dbrow.EntriesToRows(42, reps)

	// Assert
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(dbrow.EntryColumns))
	assert.Equal(t, []any{int64(42), int32(1), "nano_b", dbrow.Numeric(big.NewInt(7))}, rows[1])

	numeric, ok := rows[0][3].(pgtype.Numeric)
	require.True(t, ok)
	assert.NotSame(t, weight, numeric.Int, "Rows must not alias domain weights")
	assert.Equal(t, 0, weight.Cmp(numeric.Int))
}
